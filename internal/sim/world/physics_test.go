package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/catalogs"
)

// floorStore builds a single resident chunk with a solid floor at y=0 and
// air above.
func floorStore() *ChunkStore {
	s := testStore(16, 8)
	ch := airChunk(s, ChunkKey{})
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			ch.Blocks[ch.index(x, 0, z)] = catalogs.Cobble
		}
	}
	return s
}

func playerAt(x, y, z float64) AABB {
	return PlayerBox(mgl64.Vec3{x, y, z}, 0.6, 1.8)
}

func TestResolve_RestingOnFloorIsStable(t *testing.T) {
	s := floorStore()
	box := playerAt(8, 1, 8)
	var vel mgl64.Vec3
	for i := 0; i < 200; i++ {
		box, vel = s.Resolve(box, vel, 0.05, 24, MoveFlags{})
		if box.Min.Y() != 1 {
			t.Fatalf("step %d: resting body moved to y=%v", i, box.Min.Y())
		}
		if vel.Y() != 0 {
			t.Fatalf("step %d: resting body kept vertical velocity %v", i, vel.Y())
		}
	}
}

func TestResolve_FallsAndLandsWithoutPenetration(t *testing.T) {
	s := floorStore()
	box := playerAt(8, 6, 8)
	var vel mgl64.Vec3
	for i := 0; i < 100; i++ {
		box, vel = s.Resolve(box, vel, 0.05, 24, MoveFlags{})
		if box.Min.Y() < 1 {
			t.Fatalf("step %d: body penetrated the floor, y=%v", i, box.Min.Y())
		}
	}
	if box.Min.Y() != 1 {
		t.Fatalf("body did not land flush: y=%v", box.Min.Y())
	}
}

func TestResolve_NoTunnelingAtExtremeVelocity(t *testing.T) {
	s := floorStore()
	box := playerAt(8, 10, 8)
	vel := mgl64.Vec3{0, -1000, 0}
	box, vel = s.Resolve(box, vel, 0.5, 24, MoveFlags{})
	if box.Min.Y() != 1 {
		t.Fatalf("high-speed body tunneled: y=%v", box.Min.Y())
	}
	if vel.Y() != 0 {
		t.Fatalf("vertical velocity not zeroed on impact: %v", vel.Y())
	}
}

func TestResolve_ZeroDtIsNoop(t *testing.T) {
	s := floorStore()
	box := playerAt(8, 5, 8)
	vel := mgl64.Vec3{3, -2, 1}
	got, gotVel := s.Resolve(box, vel, 0, 24, MoveFlags{})
	if got != box || gotVel != vel {
		t.Fatalf("zero dt changed state: %+v %v", got, gotVel)
	}
}

func TestResolve_WallClampsHorizontalAxis(t *testing.T) {
	s := floorStore()
	ch, _ := s.Get(ChunkKey{})
	for z := 0; z < 16; z++ {
		for y := 1; y < 5; y++ {
			ch.Blocks[ch.index(12, y, z)] = catalogs.Bricks
		}
	}
	box := playerAt(8, 1, 8)
	vel := mgl64.Vec3{100, 0, 0}
	box, vel = s.Resolve(box, vel, 1, 24, MoveFlags{})
	if box.Max.X() != 12 {
		t.Fatalf("body not flush against wall: max x=%v", box.Max.X())
	}
	if vel.X() != 0 {
		t.Fatalf("horizontal velocity not zeroed: %v", vel.X())
	}
	// The blocked axis must not affect the others.
	if box.Min.Y() != 1 {
		t.Fatalf("vertical position disturbed: %v", box.Min.Y())
	}
}

func TestResolve_SpeedScalesMovement(t *testing.T) {
	s := floorStore()
	slow := playerAt(4, 1, 8)
	fast := playerAt(4, 1, 8)
	vel := mgl64.Vec3{1, 0, 0}
	slow, _ = s.Resolve(slow, vel, 1, 24, MoveFlags{Speed: 1})
	fast, _ = s.Resolve(fast, vel, 1, 24, MoveFlags{Speed: 2})
	if d := slow.Min.X() - (4 - 0.3 + 1); d != 0 {
		t.Fatalf("walk moved %v", slow.Min.X())
	}
	if d := fast.Min.X() - (4 - 0.3 + 2); d != 0 {
		t.Fatalf("sprint moved %v", fast.Min.X())
	}
}

func TestResolve_FlySkipsGravityAndVerticalClamping(t *testing.T) {
	s := floorStore()
	box := playerAt(8, 2, 8)

	hover, vel := s.Resolve(box, mgl64.Vec3{}, 0.1, 24, MoveFlags{Fly: true})
	if hover != box || vel != (mgl64.Vec3{}) {
		t.Fatalf("hovering fly body moved: %+v %v", hover, vel)
	}

	// Descending in fly mode passes through the floor slab.
	sunk, _ := s.Resolve(box, mgl64.Vec3{0, -30, 0}, 0.1, 24, MoveFlags{Fly: true})
	if sunk.Min.Y() != -1 {
		t.Fatalf("fly descent clamped: y=%v", sunk.Min.Y())
	}
}

func TestResolve_UnresidentChunksBlockMovement(t *testing.T) {
	s := floorStore()
	box := playerAt(8, 1, 8)
	// Chunk at x >= 16 is not resident and must act as a wall.
	vel := mgl64.Vec3{100, 0, 0}
	box, _ = s.Resolve(box, vel, 1, 24, MoveFlags{})
	if box.Max.X() != 16 {
		t.Fatalf("body entered unresident space: max x=%v", box.Max.X())
	}
}
