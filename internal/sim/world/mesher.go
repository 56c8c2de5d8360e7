package world

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/offdroid/cobble/internal/sim/catalogs"
)

// Quad is one merged rectangle of identical visible faces. Positions are
// chunk-local; corners wind counterclockwise seen from outside the block.
// UVs repeat once per covered voxel so the texture tiles across the merged
// rectangle.
type Quad struct {
	Pos    [4]mgl32.Vec3
	Normal mgl32.Vec3
	UV     [4]mgl32.Vec2
	Layer  uint32
}

// Mesh is the renderable output of one remesh pass over a chunk.
type Mesh struct {
	Quads []Quad
}

func (m *Mesh) QuadCount() int {
	if m == nil {
		return 0
	}
	return len(m.Quads)
}

// axisOf decomposes a face direction into its normal axis (0=x, 1=y, 2=z)
// and sign.
func axisOf(n Vec3i) (axis, sign int) {
	switch {
	case n.X != 0:
		return 0, n.X
	case n.Y != 0:
		return 1, n.Y
	default:
		return 2, n.Z
	}
}

// tangents returns the in-plane axes for a normal axis, ordered so that
// (axis, u, v) form a right-handed frame.
func tangents(axis int) (u, v int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 2, 0
	default:
		return 0, 1
	}
}

// dirIndex maps a normal axis and sign to the faceDirs slot, which is also
// the neighbor slot used by BuildMesh.
func dirIndex(axis, sign int) int {
	switch axis {
	case 0:
		if sign < 0 {
			return 2
		}
		return 3
	case 1:
		if sign > 0 {
			return 0
		}
		return 1
	default:
		if sign < 0 {
			return 4
		}
		return 5
	}
}

// BuildMesh runs greedy meshing over one chunk. neighbors holds the six
// face-adjacent chunks indexed like faceDirs; a nil neighbor is treated as
// fully opaque, so boundary faces against unloaded space are suppressed
// rather than guessed. Faces of solid blocks are emitted when the adjacent
// voxel is not opaque, and coplanar faces of the same block type are merged
// into maximal rectangles.
func BuildMesh(ch *Chunk, neighbors [6]*Chunk, cat *catalogs.BlockCatalog) *Mesh {
	side := ch.Side
	mesh := &Mesh{}
	mask := make([]uint32, side*side)

	for _, d := range faceDirs {
		axis, sign := axisOf(d.Normal)
		ua, va := tangents(axis)

		for a := 0; a < side; a++ {
			for v := 0; v < side; v++ {
				for u := 0; u < side; u++ {
					var p [3]int
					p[axis], p[ua], p[va] = a, u, v
					id := ch.Get(p[0], p[1], p[2])
					if !cat.IsSolid(id) {
						mask[v*side+u] = 0
						continue
					}
					q := p
					q[axis] += sign
					if opaqueAt(ch, neighbors, cat, q, side) {
						mask[v*side+u] = 0
						continue
					}
					// Cells key on block id and layer so distinct block
					// types never merge even when they share a layer.
					// The layer is offset by one so zero stays empty.
					mask[v*side+u] = uint32(id)<<16 | (cat.TextureLayer(id, d.Face) + 1)
				}
			}

			for v := 0; v < side; v++ {
				for u := 0; u < side; u++ {
					cell := mask[v*side+u]
					if cell == 0 {
						continue
					}
					w := 1
					for u+w < side && mask[v*side+u+w] == cell {
						w++
					}
					h := 1
				grow:
					for v+h < side {
						for i := 0; i < w; i++ {
							if mask[(v+h)*side+u+i] != cell {
								break grow
							}
						}
						h++
					}
					mesh.Quads = append(mesh.Quads, makeQuad(axis, sign, a, ua, va, u, v, w, h, (cell&0xffff)-1))
					for dv := 0; dv < h; dv++ {
						for du := 0; du < w; du++ {
							mask[(v+dv)*side+u+du] = 0
						}
					}
				}
			}
		}
	}
	return mesh
}

func opaqueAt(ch *Chunk, neighbors [6]*Chunk, cat *catalogs.BlockCatalog, p [3]int, side int) bool {
	if p[0] >= 0 && p[0] < side && p[1] >= 0 && p[1] < side && p[2] >= 0 && p[2] < side {
		return cat.Opaque(ch.Get(p[0], p[1], p[2]))
	}
	for axis := 0; axis < 3; axis++ {
		if p[axis] >= 0 && p[axis] < side {
			continue
		}
		sign := 1
		if p[axis] < 0 {
			sign = -1
		}
		nb := neighbors[dirIndex(axis, sign)]
		if nb == nil {
			return true
		}
		q := p
		q[axis] -= sign * side
		return cat.Opaque(nb.Get(q[0], q[1], q[2]))
	}
	return true
}

func makeQuad(axis, sign, a, ua, va, u, v, w, h int, layer uint32) Quad {
	plane := float32(a)
	if sign > 0 {
		plane = float32(a + 1)
	}
	corner := func(cu, cv int) mgl32.Vec3 {
		var p mgl32.Vec3
		p[axis] = plane
		p[ua] = float32(cu)
		p[va] = float32(cv)
		return p
	}
	var normal mgl32.Vec3
	normal[axis] = float32(sign)

	q := Quad{Normal: normal, Layer: layer}
	if sign > 0 {
		q.Pos = [4]mgl32.Vec3{corner(u, v), corner(u+w, v), corner(u+w, v+h), corner(u, v+h)}
		q.UV = [4]mgl32.Vec2{{0, 0}, {float32(w), 0}, {float32(w), float32(h)}, {0, float32(h)}}
	} else {
		q.Pos = [4]mgl32.Vec3{corner(u, v), corner(u, v+h), corner(u+w, v+h), corner(u+w, v)}
		q.UV = [4]mgl32.Vec2{{0, 0}, {0, float32(h)}, {float32(w), float32(h)}, {float32(w), 0}}
	}
	return q
}

// meshNeighbors gathers the six face-adjacent chunks for a key.
func (s *ChunkStore) meshNeighbors(key ChunkKey) [6]*Chunk {
	var nbs [6]*Chunk
	for i, d := range faceDirs {
		if nb, ok := s.chunks[key.offset(d.Normal)]; ok {
			nbs[i] = nb
		}
	}
	return nbs
}

// Remesh rebuilds the mesh for one resident chunk and clears its dirty flag.
func (s *ChunkStore) Remesh(key ChunkKey) (*Mesh, bool) {
	ch, ok := s.chunks[key]
	if !ok {
		return nil, false
	}
	ch.mesh = BuildMesh(ch, s.meshNeighbors(key), s.cat)
	ch.dirty = false
	ch.state = StateReady
	return ch.mesh, true
}
