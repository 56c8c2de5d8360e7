package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/catalogs"
	"github.com/offdroid/cobble/internal/sim/world/logic/mathx"
)

// BlockAt reads a block at a world coordinate. The second return is false
// when the containing chunk is not resident.
func (s *ChunkStore) BlockAt(pos Vec3i) (catalogs.BlockID, bool) {
	key, local := s.Split(pos)
	ch, ok := s.chunks[key]
	if !ok {
		return catalogs.Air, false
	}
	return ch.Get(local.X, local.Y, local.Z), true
}

// IsSolidBlock reports whether the voxel at a world coordinate is solid.
// Unresident chunks count as solid so the physics layer never moves a body
// through ungenerated space.
func (s *ChunkStore) IsSolidBlock(pos Vec3i) bool {
	id, ok := s.BlockAt(pos)
	if !ok {
		return true
	}
	return s.cat.IsSolid(id)
}

// IsSolidAt is IsSolidBlock for a continuous world position.
func (s *ChunkStore) IsSolidAt(p mgl64.Vec3) bool {
	return s.IsSolidBlock(Vec3i{
		X: mathx.FloorToInt(p.X()),
		Y: mathx.FloorToInt(p.Y()),
		Z: mathx.FloorToInt(p.Z()),
	})
}

// pickSolid is the raycast solidity predicate. Unlike collision, picking
// into unresident space finds nothing.
func (s *ChunkStore) pickSolid(pos Vec3i) bool {
	id, ok := s.BlockAt(pos)
	if !ok {
		return false
	}
	return s.cat.IsSolid(id)
}

// ApplyEdit writes a block at a world coordinate. It rejects unknown block
// ids and coordinates outside resident chunks. A write that does not change
// the stored value leaves all dirty state untouched. On a real change the
// owning chunk is marked dirty, as is any face-adjacent resident neighbor
// when the edit sits on a chunk boundary.
func (s *ChunkStore) ApplyEdit(pos Vec3i, id catalogs.BlockID) error {
	if !s.cat.Known(id) {
		return fmt.Errorf("apply edit at %v: unknown block id %d", pos, id)
	}
	key, local := s.Split(pos)
	ch, ok := s.chunks[key]
	if !ok {
		return fmt.Errorf("apply edit at %v: chunk %v not loaded", pos, key)
	}
	if !ch.set(local.X, local.Y, local.Z, id) {
		return nil
	}
	for _, d := range faceDirs {
		n := local.Add(d.Normal)
		if ch.inBounds(n.X, n.Y, n.Z) {
			continue
		}
		if nb, ok := s.chunks[key.offset(d.Normal)]; ok {
			nb.dirty = true
		}
	}
	return nil
}
