package world

import (
	"github.com/offdroid/cobble/internal/sim/catalogs"
)

// canopyRadius is the maximum horizontal reach of a tree canopy. Tree roots
// keep this margin from the chunk XZ border so a tree never writes into a
// horizontal neighbor, which keeps generation a pure function of the chunk
// key.
const canopyRadius = 3

// generate fills a fresh chunk from the noise fields. Strata, bottom to top:
// cobble floor at world y 0, gravel depths, a four-block dirt band under the
// surface, then grass or sand on top. Everything below y 0 is void.
func (s *ChunkStore) generate(ch *Chunk) {
	side := ch.Side
	baseX := ch.Key.CX * side
	baseY := ch.Key.CY * side
	baseZ := ch.Key.CZ * side

	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			wx := baseX + x
			wz := baseZ + z
			h := s.fields.HeightAt(wx, wz)
			sandy := s.fields.SandyAt(wx, wz)
			for y := 0; y < side; y++ {
				wy := baseY + y
				var b catalogs.BlockID
				switch {
				case wy < 0 || wy >= h:
					b = catalogs.Air
				case wy == 0:
					b = catalogs.Cobble
				case sandy:
					b = catalogs.Sand
				case wy == h-1:
					b = catalogs.Grass
				case wy >= h-4:
					b = catalogs.Dirt
				default:
					b = catalogs.Gravel
				}
				ch.Blocks[ch.index(x, y, z)] = b
			}
		}
	}

	s.plantTrees(ch)
}

// plantTrees adds trunks and canopies for every tree column in the chunk's
// XZ footprint. Tree voxels are computed in world space and only those that
// fall inside this chunk's Y range are written, so a vertical neighbor
// generating the same column reproduces the overlapping part exactly.
func (s *ChunkStore) plantTrees(ch *Chunk) {
	side := ch.Side
	baseX := ch.Key.CX * side
	baseY := ch.Key.CY * side
	baseZ := ch.Key.CZ * side

	for z := canopyRadius; z < side-canopyRadius; z++ {
		for x := canopyRadius; x < side-canopyRadius; x++ {
			wx := baseX + x
			wz := baseZ + z
			if s.fields.SandyAt(wx, wz) || !s.fields.TreeAt(wx, wz) {
				continue
			}
			h := s.fields.HeightAt(wx, wz)
			top := h + s.fields.TreeHeight(wx, wz)

			for wy := h; wy < top; wy++ {
				if y := wy - baseY; y >= 0 && y < side {
					ch.Blocks[ch.index(x, y, z)] = catalogs.Wood
				}
			}

			for dy := -canopyRadius; dy <= canopyRadius; dy++ {
				y := top + dy - baseY
				if y < 0 || y >= side {
					continue
				}
				for dz := -canopyRadius; dz <= canopyRadius; dz++ {
					for dx := -canopyRadius; dx <= canopyRadius; dx++ {
						lx := x + dx
						lz := z + dz
						wy := top + dy
						if !s.fields.LeafAt(wx+dx, wy, wz+dz, dx, dy, dz) {
							continue
						}
						i := ch.index(lx, y, lz)
						if ch.Blocks[i] == catalogs.Air {
							ch.Blocks[i] = catalogs.Leaves
						}
					}
				}
			}
		}
	}
}
