package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/world/logic/mathx"
)

// RaycastHit describes the first solid voxel along a ray. Normal is the unit
// outward normal of the entered face, zero when the ray started inside a
// solid voxel.
type RaycastHit struct {
	Block    Vec3i
	Chunk    ChunkKey
	Local    Vec3i
	Normal   Vec3i
	Point    mgl64.Vec3
	Distance float64
}

// Raycast walks the voxel grid from origin along dir, visiting every voxel
// the ray passes through in order, and stops at the first solid voxel within
// maxDist. When two or three boundary crossings coincide the step order is
// x, then y, then z. Rays through unresident chunks pass without hitting.
func (s *ChunkStore) Raycast(origin, dir mgl64.Vec3, maxDist float64) (RaycastHit, bool) {
	if maxDist <= 0 || dir.Len() == 0 {
		return RaycastHit{}, false
	}
	dir = dir.Normalize()

	cur := Vec3i{
		X: mathx.FloorToInt(origin.X()),
		Y: mathx.FloorToInt(origin.Y()),
		Z: mathx.FloorToInt(origin.Z()),
	}
	if s.pickSolid(cur) {
		return s.hitAt(cur, Vec3i{}, origin, 0), true
	}

	var step Vec3i
	tMax := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	tDelta := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	curArr := [3]int{cur.X, cur.Y, cur.Z}
	stepArr := [3]int{}
	for i := 0; i < 3; i++ {
		d := dir[i]
		if d > 0 {
			stepArr[i] = 1
			tMax[i] = (float64(curArr[i]+1) - origin[i]) / d
			tDelta[i] = 1 / d
		} else if d < 0 {
			stepArr[i] = -1
			tMax[i] = (float64(curArr[i]) - origin[i]) / d
			tDelta[i] = -1 / d
		}
	}
	step = Vec3i{X: stepArr[0], Y: stepArr[1], Z: stepArr[2]}

	for {
		var axis int
		if tMax[0] <= tMax[1] && tMax[0] <= tMax[2] {
			axis = 0
		} else if tMax[1] <= tMax[2] {
			axis = 1
		} else {
			axis = 2
		}

		t := tMax[axis]
		if t > maxDist {
			return RaycastHit{}, false
		}
		tMax[axis] += tDelta[axis]

		var normal Vec3i
		switch axis {
		case 0:
			cur.X += step.X
			normal.X = -step.X
		case 1:
			cur.Y += step.Y
			normal.Y = -step.Y
		case 2:
			cur.Z += step.Z
			normal.Z = -step.Z
		}

		if s.pickSolid(cur) {
			point := origin.Add(dir.Mul(t))
			return s.hitAt(cur, normal, point, t), true
		}
	}
}

func (s *ChunkStore) hitAt(block, normal Vec3i, point mgl64.Vec3, dist float64) RaycastHit {
	key, local := s.Split(block)
	return RaycastHit{
		Block:    block,
		Chunk:    key,
		Local:    local,
		Normal:   normal,
		Point:    point,
		Distance: dist,
	}
}
