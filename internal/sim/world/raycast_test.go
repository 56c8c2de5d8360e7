package world

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/catalogs"
)

func TestRaycast_OrthogonalHit(t *testing.T) {
	s := testStore(16, 8)
	ch := airChunk(s, ChunkKey{})
	ch.Blocks[ch.index(8, 8, 8)] = catalogs.Dirt

	hit, ok := s.Raycast(mgl64.Vec3{4.5, 8.5, 8.5}, mgl64.Vec3{1, 0, 0}, 10)
	if !ok {
		t.Fatalf("expected hit")
	}
	if hit.Block != (Vec3i{X: 8, Y: 8, Z: 8}) {
		t.Fatalf("hit block %+v", hit.Block)
	}
	if hit.Normal != (Vec3i{X: -1}) {
		t.Fatalf("hit normal %+v want -x", hit.Normal)
	}
	if math.Abs(hit.Distance-3.5) > 1e-9 {
		t.Fatalf("hit distance %v want 3.5", hit.Distance)
	}
	if hit.Chunk != (ChunkKey{}) || hit.Local != (Vec3i{X: 8, Y: 8, Z: 8}) {
		t.Fatalf("hit chunk/local %+v %+v", hit.Chunk, hit.Local)
	}
}

func TestRaycast_ReachLimit(t *testing.T) {
	s := testStore(16, 8)
	ch := airChunk(s, ChunkKey{})
	ch.Blocks[ch.index(8, 8, 8)] = catalogs.Dirt

	if _, ok := s.Raycast(mgl64.Vec3{4.5, 8.5, 8.5}, mgl64.Vec3{1, 0, 0}, 3); ok {
		t.Fatalf("hit beyond max distance")
	}
	if _, ok := s.Raycast(mgl64.Vec3{4.5, 8.5, 8.5}, mgl64.Vec3{1, 0, 0}, 3.6); !ok {
		t.Fatalf("missed within max distance")
	}
}

func TestRaycast_TieBreakPrefersX(t *testing.T) {
	s := testStore(16, 8)
	ch := airChunk(s, ChunkKey{})
	// Both candidates one diagonal step away; the x step must win the tie.
	ch.Blocks[ch.index(1, 0, 0)] = catalogs.Dirt
	ch.Blocks[ch.index(0, 1, 0)] = catalogs.Dirt

	hit, ok := s.Raycast(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 1, 0}, 5)
	if !ok {
		t.Fatalf("expected hit")
	}
	if hit.Block != (Vec3i{X: 1, Y: 0, Z: 0}) {
		t.Fatalf("tie broken to %+v want x step first", hit.Block)
	}
	if hit.Normal != (Vec3i{X: -1}) {
		t.Fatalf("hit normal %+v", hit.Normal)
	}
}

func TestRaycast_UnresidentSpaceMisses(t *testing.T) {
	s := testStore(16, 8)
	if _, ok := s.Raycast(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 50); ok {
		t.Fatalf("raycast hit inside unresident space")
	}
}

func TestRaycast_StartInsideSolid(t *testing.T) {
	s := testStore(16, 8)
	ch := airChunk(s, ChunkKey{})
	fillChunk(ch, catalogs.Dirt)

	hit, ok := s.Raycast(mgl64.Vec3{2.5, 2.5, 2.5}, mgl64.Vec3{0, 1, 0}, 5)
	if !ok {
		t.Fatalf("expected immediate hit")
	}
	if hit.Distance != 0 || hit.Normal != (Vec3i{}) {
		t.Fatalf("start-inside hit = %+v", hit)
	}
}

func TestRaycast_ZeroDirectionMisses(t *testing.T) {
	s := testStore(16, 8)
	airChunk(s, ChunkKey{})
	if _, ok := s.Raycast(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}, 5); ok {
		t.Fatalf("zero direction produced a hit")
	}
}

func TestRaycast_DiagonalVisitsEveryVoxel(t *testing.T) {
	s := testStore(16, 8)
	ch := airChunk(s, ChunkKey{})
	// A thin diagonal wall: a ray skipping corners would pass through.
	ch.Blocks[ch.index(5, 3, 4)] = catalogs.Bricks
	ch.Blocks[ch.index(4, 3, 5)] = catalogs.Bricks

	hit, ok := s.Raycast(mgl64.Vec3{4.5, 3.5, 4.5}, mgl64.Vec3{1, 0, 1}, 5)
	if !ok {
		t.Fatalf("ray tunneled through diagonal wall")
	}
	if hit.Block != (Vec3i{X: 5, Y: 3, Z: 4}) {
		t.Fatalf("hit %+v want the x-side wall voxel first", hit.Block)
	}
}
