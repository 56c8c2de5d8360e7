// Package observerproto defines the wire frames of the read-only observer
// stream. Every websocket message is one JSON frame compressed with zstd.
package observerproto

// ProtocolVersion is bumped on any incompatible frame change.
const ProtocolVersion = 1

// Frame type tags.
const (
	TypeBootstrap   = "BOOTSTRAP"
	TypeChunkMesh   = "CHUNK_MESH"
	TypeChunkUnload = "CHUNK_UNLOAD"
)

// Bootstrap is the first frame on every connection. It carries the fixed
// world parameters an observer needs to interpret mesh frames.
type Bootstrap struct {
	Type            string `json:"type"`
	ProtocolVersion int    `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	Tick            uint64 `json:"tick"`
	Seed            int64  `json:"seed"`
	ChunkSize       int    `json:"chunk_size"`
	LoadRadius      int    `json:"load_radius"`
	TickRateHz      int    `json:"tick_rate_hz"`
	BlockDigest     string `json:"block_digest"`
	TextureLayers   int    `json:"texture_layers"`
}

// QuadWire is one merged face rectangle. Positions are chunk-local; the
// chunk origin in world space is chunk * chunk_size.
type QuadWire struct {
	Pos    [4][3]float32 `json:"pos"`
	Normal [3]float32    `json:"normal"`
	UV     [4][2]float32 `json:"uv"`
	Layer  uint32        `json:"layer"`
}

// ChunkMesh replaces the observer's copy of one chunk's mesh.
type ChunkMesh struct {
	Type   string     `json:"type"`
	Tick   uint64     `json:"tick"`
	Chunk  [3]int     `json:"chunk"`
	Digest string     `json:"digest"`
	Quads  []QuadWire `json:"quads"`
}

// ChunkUnload drops one chunk from the observer's view.
type ChunkUnload struct {
	Type  string `json:"type"`
	Tick  uint64 `json:"tick"`
	Chunk [3]int `json:"chunk"`
}
