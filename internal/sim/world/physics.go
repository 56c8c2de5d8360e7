package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/world/logic/mathx"
)

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// PlayerBox builds the collision box for a body standing at pos, where pos
// is the center of the bottom face.
func PlayerBox(pos mgl64.Vec3, width, height float64) AABB {
	half := width / 2
	return AABB{
		Min: mgl64.Vec3{pos.X() - half, pos.Y(), pos.Z() - half},
		Max: mgl64.Vec3{pos.X() + half, pos.Y() + height, pos.Z() + half},
	}
}

// BottomCenter is the inverse of PlayerBox's anchor.
func (b AABB) BottomCenter() mgl64.Vec3 {
	return mgl64.Vec3{
		(b.Min.X() + b.Max.X()) / 2,
		b.Min.Y(),
		(b.Min.Z() + b.Max.Z()) / 2,
	}
}

func (b AABB) translate(axis int, d float64) AABB {
	b.Min[axis] += d
	b.Max[axis] += d
	return b
}

// MoveFlags carries the movement modifiers for one resolve step. Speed
// scales the input velocity (sprint or sneak); zero means unscaled. Fly
// disables gravity and vertical collision response.
type MoveFlags struct {
	Fly   bool
	Speed float64
}

// Resolve integrates a moving box against the solid voxel grid for one step.
// Each axis is swept and clamped independently, x then y then z, so the box
// stops flush at the first solid boundary it would cross and never tunnels
// regardless of displacement size. The returned velocity has the clamped
// components zeroed and, outside fly mode, gravity applied.
func (s *ChunkStore) Resolve(box AABB, vel mgl64.Vec3, dt float64, gravity float64, flags MoveFlags) (AABB, mgl64.Vec3) {
	if dt <= 0 {
		return box, vel
	}
	speed := flags.Speed
	if speed <= 0 {
		speed = 1
	}

	v := mgl64.Vec3{vel.X() * speed, vel.Y(), vel.Z() * speed}
	if flags.Fly {
		v[1] = vel.Y() * speed
	} else {
		v[1] = vel.Y() - gravity*dt
	}

	out := v
	for axis := 0; axis < 3; axis++ {
		d := v[axis] * dt
		if flags.Fly && axis == 1 {
			box = box.translate(axis, d)
			continue
		}
		var blocked bool
		box, blocked = s.sweepAxis(box, axis, d)
		if blocked {
			out[axis] = 0
		}
	}
	return box, out
}

// sweepAxis moves the box along one axis by up to d. The leading face stops
// flush on the first solid voxel boundary it would cross; on a clamp the
// face coordinate is snapped exactly onto the boundary so resting contact
// stays bit-stable across steps. A face already inside a solid voxel does
// not move further into it.
func (s *ChunkStore) sweepAxis(box AABB, axis int, d float64) (AABB, bool) {
	if d == 0 {
		return box, false
	}
	extent := box.Max[axis] - box.Min[axis]
	if d > 0 {
		p := box.Max[axis]
		first := ceilInt(p)
		if float64(first) != p && s.slabSolid(box, axis, first-1) {
			return box, true
		}
		last := mathx.FloorToInt(p + d)
		for b := first; b <= last; b++ {
			if s.slabSolid(box, axis, b) {
				box.Max[axis] = float64(b)
				box.Min[axis] = float64(b) - extent
				return box, true
			}
		}
		return box.translate(axis, d), false
	}
	p := box.Min[axis]
	first := mathx.FloorToInt(p)
	if float64(first) != p && s.slabSolid(box, axis, first) {
		return box, true
	}
	last := ceilInt(p + d)
	for b := first; b >= last; b-- {
		if s.slabSolid(box, axis, b-1) {
			box.Min[axis] = float64(b)
			box.Max[axis] = float64(b) + extent
			return box, true
		}
	}
	return box.translate(axis, d), false
}

// slabSolid reports whether any solid voxel with coordinate k on the swept
// axis overlaps the box's cross-section on the other two axes.
func (s *ChunkStore) slabSolid(box AABB, axis, k int) bool {
	u, v := tangents(axis)
	u0, u1 := voxelSpan(box.Min[u], box.Max[u])
	v0, v1 := voxelSpan(box.Min[v], box.Max[v])
	var p [3]int
	p[axis] = k
	for pv := v0; pv <= v1; pv++ {
		for pu := u0; pu <= u1; pu++ {
			p[u], p[v] = pu, pv
			if s.IsSolidBlock(Vec3i{X: p[0], Y: p[1], Z: p[2]}) {
				return true
			}
		}
	}
	return false
}

// voxelSpan returns the inclusive voxel index range covered by an interval.
// An interval ending exactly on a voxel boundary does not cover the voxel
// past it, so a box resting flush against a wall is not in contact with it.
func voxelSpan(lo, hi float64) (int, int) {
	a := mathx.FloorToInt(lo)
	b := mathx.FloorToInt(hi)
	if float64(b) == hi {
		b--
	}
	return a, b
}

func ceilInt(x float64) int {
	return -mathx.FloorToInt(-x)
}
