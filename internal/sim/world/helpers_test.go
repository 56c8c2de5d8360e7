package world

import (
	"io"
	"log"

	"github.com/offdroid/cobble/internal/sim/catalogs"
	"github.com/offdroid/cobble/internal/sim/tuning"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// flatGen produces perfectly flat terrain: surface at base, no sand mixing
// aside, no trees. Amplitude zero pins every column to the base height.
func flatGen(base int) tuning.Generator {
	cfg := tuning.Defaults().Generator
	cfg.BaseHeight = base
	cfg.Amplitude = 0
	cfg.TreePermille = 0
	return cfg
}

func testStore(side, base int) *ChunkStore {
	return NewChunkStore(1, side, catalogs.Default(), flatGen(base), testLogger())
}

// airChunk registers an all-air chunk directly, bypassing generation, so
// tests control exactly which voxels are solid.
func airChunk(s *ChunkStore, key ChunkKey) *Chunk {
	ch := newChunk(key, s.side)
	ch.state = StateReady
	s.chunks[key] = ch
	return ch
}

func fillChunk(ch *Chunk, id catalogs.BlockID) {
	for i := range ch.Blocks {
		ch.Blocks[i] = id
	}
}

type memAudit struct {
	entries []AuditEntry
}

func (m *memAudit) WriteEdit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func testWorld() (*World, *memAudit) {
	aud := &memAudit{}
	cfg := Config{
		WorldID:    "test",
		Seed:       1,
		ChunkSize:  16,
		LoadRadius: 1,
		TickRateHz: 30,
		Creative:   true,
		Physics:    tuning.Defaults().Physics,
		Generator:  flatGen(8),
	}
	return NewWorld(cfg, catalogs.Default(), testLogger(), aud), aud
}
