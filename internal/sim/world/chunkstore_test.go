package world

import (
	"testing"

	"github.com/offdroid/cobble/internal/sim/catalogs"
)

func TestLoad_SingleInstancePerKey(t *testing.T) {
	s := testStore(16, 8)
	key := ChunkKey{CX: 0, CY: 0, CZ: 0}
	a := s.Load(key)
	b := s.Load(key)
	if a != b {
		t.Fatalf("two Load calls returned different chunk instances")
	}
	if n := len(s.LoadedChunkKeys()); n != 1 {
		t.Fatalf("loaded keys = %d want 1", n)
	}
}

func TestGenerate_DeterministicAcrossStoresAndReloads(t *testing.T) {
	key := ChunkKey{CX: -1, CY: 0, CZ: 2}

	a := testStore(16, 8).Load(key).Digest()
	b := testStore(16, 8).Load(key).Digest()
	if a != b {
		t.Fatalf("same seed produced different chunks: %s vs %s", a, b)
	}

	s := testStore(16, 8)
	first := s.Load(key).Digest()
	s.Unload(key)
	second := s.Load(key).Digest()
	if first != second {
		t.Fatalf("regeneration after unload changed the chunk: %s vs %s", first, second)
	}
}

func TestGenerate_Strata(t *testing.T) {
	s := testStore(16, 8)
	s.Load(ChunkKey{})

	if id, _ := s.BlockAt(Vec3i{X: 5, Y: 0, Z: 5}); id != catalogs.Cobble {
		t.Fatalf("world floor block = %d want cobble", id)
	}
	if id, _ := s.BlockAt(Vec3i{X: 5, Y: 7, Z: 5}); id == catalogs.Air {
		t.Fatalf("surface block must be solid")
	}
	if id, _ := s.BlockAt(Vec3i{X: 5, Y: 8, Z: 5}); id != catalogs.Air {
		t.Fatalf("block above surface = %d want air", id)
	}

	below := s.Load(ChunkKey{CY: -1})
	for i, b := range below.Blocks {
		if b != catalogs.Air {
			t.Fatalf("voxel below y=0 not air at index %d", i)
		}
	}
}

func TestSplit_NegativeCoordinates(t *testing.T) {
	s := testStore(16, 8)
	key, local := s.Split(Vec3i{X: -1, Y: -17, Z: 16})
	if key != (ChunkKey{CX: -1, CY: -2, CZ: 1}) {
		t.Fatalf("key = %+v", key)
	}
	if local != (Vec3i{X: 15, Y: 15, Z: 0}) {
		t.Fatalf("local = %+v", local)
	}
}

func TestApplyEdit_RejectsUnknownBlockAndUnloadedChunk(t *testing.T) {
	s := testStore(16, 8)
	s.Load(ChunkKey{})

	if err := s.ApplyEdit(Vec3i{X: 1, Y: 1, Z: 1}, 999); err == nil {
		t.Fatalf("expected unknown block rejection")
	}
	if err := s.ApplyEdit(Vec3i{X: 100, Y: 1, Z: 1}, catalogs.Dirt); err == nil {
		t.Fatalf("expected unloaded chunk rejection")
	}
	if id, _ := s.BlockAt(Vec3i{X: 1, Y: 1, Z: 1}); id == 999 {
		t.Fatalf("rejected edit mutated the chunk")
	}
}

func TestApplyEdit_NoopKeepsChunkClean(t *testing.T) {
	s := testStore(16, 8)
	key := ChunkKey{}
	ch := s.Load(key)
	s.Remesh(key)
	if ch.Dirty() {
		t.Fatalf("chunk dirty after remesh")
	}

	// The voxel is already air; writing air again must change nothing.
	if err := s.ApplyEdit(Vec3i{X: 3, Y: 12, Z: 3}, catalogs.Air); err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if ch.Dirty() {
		t.Fatalf("no-op edit marked the chunk dirty")
	}
}

func TestApplyEdit_BoundaryEditDirtiesNeighbor(t *testing.T) {
	s := testStore(16, 8)
	a := s.Load(ChunkKey{})
	b := s.Load(ChunkKey{CX: 1})
	s.Remesh(ChunkKey{})
	s.Remesh(ChunkKey{CX: 1})

	if err := s.ApplyEdit(Vec3i{X: 15, Y: 12, Z: 4}, catalogs.Bricks); err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if !a.Dirty() {
		t.Fatalf("edited chunk not dirty")
	}
	if !b.Dirty() {
		t.Fatalf("face-adjacent neighbor not dirty after boundary edit")
	}
}

func TestApplyEdit_InteriorEditLeavesNeighborClean(t *testing.T) {
	s := testStore(16, 8)
	s.Load(ChunkKey{})
	b := s.Load(ChunkKey{CX: 1})
	s.Remesh(ChunkKey{})
	s.Remesh(ChunkKey{CX: 1})

	if err := s.ApplyEdit(Vec3i{X: 8, Y: 12, Z: 8}, catalogs.Planks); err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if b.Dirty() {
		t.Fatalf("interior edit dirtied a neighbor")
	}
}

func TestUnload_MarksNeighborsDirty(t *testing.T) {
	s := testStore(16, 8)
	s.Load(ChunkKey{})
	b := s.Load(ChunkKey{CX: 1})
	s.Remesh(ChunkKey{})
	s.Remesh(ChunkKey{CX: 1})

	s.Unload(ChunkKey{})
	if _, ok := s.Get(ChunkKey{}); ok {
		t.Fatalf("chunk still resident after unload")
	}
	if !b.Dirty() {
		t.Fatalf("neighbor not dirty after unload")
	}
}

func TestBreak_ThenRebuildRestoresAir(t *testing.T) {
	s := testStore(16, 8)
	s.Load(ChunkKey{})
	pos := Vec3i{X: 4, Y: 7, Z: 4}

	if err := s.ApplyEdit(pos, catalogs.Air); err != nil {
		t.Fatalf("break: %v", err)
	}
	if id, _ := s.BlockAt(pos); id != catalogs.Air {
		t.Fatalf("broken voxel = %d want air", id)
	}
	if err := s.ApplyEdit(pos, catalogs.Bricks); err != nil {
		t.Fatalf("place: %v", err)
	}
	if id, _ := s.BlockAt(pos); id != catalogs.Bricks {
		t.Fatalf("placed voxel = %d want bricks", id)
	}
}

func TestIsSolid_UnloadedIsSolidForCollision(t *testing.T) {
	s := testStore(16, 8)
	if !s.IsSolidBlock(Vec3i{X: 100, Y: 100, Z: 100}) {
		t.Fatalf("unresident voxel must read solid for collision")
	}
	if s.pickSolid(Vec3i{X: 100, Y: 100, Z: 100}) {
		t.Fatalf("unresident voxel must read empty for picking")
	}
}
