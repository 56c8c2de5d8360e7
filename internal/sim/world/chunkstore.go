package world

import (
	"log"
	"sort"

	"github.com/offdroid/cobble/internal/sim/catalogs"
	"github.com/offdroid/cobble/internal/sim/tuning"
	"github.com/offdroid/cobble/internal/sim/world/logic/mathx"
	"github.com/offdroid/cobble/internal/sim/world/terrain/gen"
)

// ChunkStore owns every loaded chunk and is the single mutation path for
// block data. It is not safe for concurrent use; the world loop is its only
// caller.
type ChunkStore struct {
	side   int
	seed   int64
	cat    *catalogs.BlockCatalog
	fields *gen.Fields
	logger *log.Logger

	chunks map[ChunkKey]*Chunk
}

func NewChunkStore(seed int64, side int, cat *catalogs.BlockCatalog, genCfg tuning.Generator, logger *log.Logger) *ChunkStore {
	if side < 1 {
		side = 1
	}
	return &ChunkStore{
		side:   side,
		seed:   seed,
		cat:    cat,
		fields: gen.NewFields(seed, genCfg),
		logger: logger,
		chunks: make(map[ChunkKey]*Chunk),
	}
}

func (s *ChunkStore) Side() int                       { return s.side }
func (s *ChunkStore) Seed() int64                     { return s.seed }
func (s *ChunkStore) Catalog() *catalogs.BlockCatalog { return s.cat }

// Get returns the chunk for a key without loading it.
func (s *ChunkStore) Get(key ChunkKey) (*Chunk, bool) {
	ch, ok := s.chunks[key]
	return ch, ok
}

// Load returns the chunk for a key, generating it first if it is not
// resident. At most one Chunk instance ever exists per key. Loading a new
// chunk marks its resident neighbors dirty so their boundary faces are
// rebuilt against the fresh data.
func (s *ChunkStore) Load(key ChunkKey) *Chunk {
	if ch, ok := s.chunks[key]; ok {
		return ch
	}
	ch := newChunk(key, s.side)
	s.generate(ch)
	ch.state = StateReady
	ch.dirty = true
	s.chunks[key] = ch
	for _, d := range faceDirs {
		if nb, ok := s.chunks[key.offset(d.Normal)]; ok {
			nb.dirty = true
		}
	}
	return ch
}

// Unload drops a chunk and its mesh. Neighbors are marked dirty so their
// shared boundary is reconsidered on the next remesh pass.
func (s *ChunkStore) Unload(key ChunkKey) {
	if _, ok := s.chunks[key]; !ok {
		return
	}
	delete(s.chunks, key)
	for _, d := range faceDirs {
		if nb, ok := s.chunks[key.offset(d.Normal)]; ok {
			nb.dirty = true
		}
	}
}

// LoadedChunkKeys returns every resident key in a deterministic order.
func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.CX != b.CX {
			return a.CX < b.CX
		}
		if a.CY != b.CY {
			return a.CY < b.CY
		}
		return a.CZ < b.CZ
	})
	return keys
}

// Split maps a world block coordinate to its chunk key and chunk-local
// offset using floor division, so negative coordinates land in the right
// chunk.
func (s *ChunkStore) Split(pos Vec3i) (ChunkKey, Vec3i) {
	key := ChunkKey{
		CX: mathx.FloorDiv(pos.X, s.side),
		CY: mathx.FloorDiv(pos.Y, s.side),
		CZ: mathx.FloorDiv(pos.Z, s.side),
	}
	local := Vec3i{
		X: mathx.Mod(pos.X, s.side),
		Y: mathx.Mod(pos.Y, s.side),
		Z: mathx.Mod(pos.Z, s.side),
	}
	return key, local
}
