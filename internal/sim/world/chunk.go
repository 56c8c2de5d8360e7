package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/offdroid/cobble/internal/sim/catalogs"
)

// ChunkState tracks where a loaded chunk is in its lifecycle. Unloaded chunks
// do not exist in the store at all.
type ChunkState int

const (
	StateGenerating ChunkState = iota
	StateReady
)

// Chunk is a cubic block volume of Side^3 voxels. Blocks are laid out with x
// varying fastest, then z, then y. All mutation goes through the owning
// ChunkStore; a Chunk is never shared across goroutines.
type Chunk struct {
	Key    ChunkKey
	Side   int
	Blocks []catalogs.BlockID

	state ChunkState
	dirty bool
	mesh  *Mesh

	digest   string
	digestOK bool
}

func newChunk(key ChunkKey, side int) *Chunk {
	return &Chunk{
		Key:    key,
		Side:   side,
		Blocks: make([]catalogs.BlockID, side*side*side),
		state:  StateGenerating,
	}
}

func (c *Chunk) index(x, y, z int) int {
	return x + c.Side*(z+c.Side*y)
}

func (c *Chunk) inBounds(x, y, z int) bool {
	return x >= 0 && x < c.Side && y >= 0 && y < c.Side && z >= 0 && z < c.Side
}

// Get returns the block at a chunk-local coordinate. Out-of-bounds reads
// return air.
func (c *Chunk) Get(x, y, z int) catalogs.BlockID {
	if !c.inBounds(x, y, z) {
		return catalogs.Air
	}
	return c.Blocks[c.index(x, y, z)]
}

// set writes a block and marks the chunk dirty when the value changed. It
// reports whether the write changed anything.
func (c *Chunk) set(x, y, z int, id catalogs.BlockID) bool {
	i := c.index(x, y, z)
	if c.Blocks[i] == id {
		return false
	}
	c.Blocks[i] = id
	c.dirty = true
	c.digestOK = false
	return true
}

func (c *Chunk) State() ChunkState { return c.state }
func (c *Chunk) Dirty() bool       { return c.dirty }

// Mesh returns the last built mesh, or nil before the first remesh pass.
func (c *Chunk) Mesh() *Mesh { return c.mesh }

// Digest is a hex sha256 over the block array, stable across runs for the
// same seed and edit history.
func (c *Chunk) Digest() string {
	if c.digestOK {
		return c.digest
	}
	h := sha256.New()
	var buf [2]byte
	for _, b := range c.Blocks {
		binary.LittleEndian.PutUint16(buf[:], uint16(b))
		h.Write(buf[:])
	}
	c.digest = hex.EncodeToString(h.Sum(nil))
	c.digestOK = true
	return c.digest
}
