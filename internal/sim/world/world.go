package world

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/catalogs"
	"github.com/offdroid/cobble/internal/sim/tuning"
)

// Config is the fixed world configuration, assembled from tuning at startup.
type Config struct {
	WorldID          string
	Seed             int64
	ChunkSize        int
	LoadRadius       int
	TickRateHz       int
	Creative         bool
	BreakableBedrock bool
	Physics          tuning.Physics
	Generator        tuning.Generator
}

func ConfigFromTuning(worldID string, t tuning.Tuning) Config {
	return Config{
		WorldID:          worldID,
		Seed:             t.World.Seed,
		ChunkSize:        t.World.ChunkSize,
		LoadRadius:       t.World.LoadRadius,
		TickRateHz:       t.World.TickRateHz,
		Creative:         t.Game.Creative,
		BreakableBedrock: t.Game.BreakableBedrock,
		Physics:          t.Physics,
		Generator:        t.Generator,
	}
}

// Player is the single simulated body. Wish is the desired velocity from the
// last movement input; Vel carries the resolved velocity across ticks.
type Player struct {
	Pos   mgl64.Vec3
	Vel   mgl64.Vec3
	Wish  mgl64.Vec3
	Look  mgl64.Vec3
	Flags MoveFlags
}

type EditKind string

const (
	EditPlace EditKind = "place"
	EditBreak EditKind = "break"
)

// EditRequest asks the world to change one block at the next tick boundary.
type EditRequest struct {
	Kind  EditKind
	Pos   Vec3i
	Block catalogs.BlockID
}

// PickResult answers a pick-block request.
type PickResult struct {
	Block catalogs.BlockID
	OK    bool
}

type pickRequest struct {
	pos  Vec3i
	resp chan PickResult
}

// MoveInput replaces the player's movement intent. Last write before a tick
// wins.
type MoveInput struct {
	Wish  mgl64.Vec3
	Look  mgl64.Vec3
	Flags MoveFlags
}

// AuditEntry records one edit request and its outcome.
type AuditEntry struct {
	At      time.Time `json:"at"`
	Tick    uint64    `json:"tick"`
	Kind    string    `json:"kind"`
	X       int       `json:"x"`
	Y       int       `json:"y"`
	Z       int       `json:"z"`
	Block   uint16    `json:"block"`
	Applied bool      `json:"applied"`
	Reason  string    `json:"reason,omitempty"`
}

// AuditLogger receives every edit outcome. Implementations must not block
// the world loop for long.
type AuditLogger interface {
	WriteEdit(AuditEntry) error
}

// MeshUpdate is pushed to observers whenever a chunk's mesh changes. A nil
// Mesh means the chunk was unloaded.
type MeshUpdate struct {
	Tick   uint64
	Key    ChunkKey
	Digest string
	Mesh   *Mesh
}

// ObserverJoin subscribes a mesh consumer. Out receives updates after the
// welcome; slow consumers have updates dropped, never block the loop.
type ObserverJoin struct {
	Out  chan MeshUpdate
	Resp chan ObserverWelcome
}

type ObserverWelcome struct {
	ID            uint64
	WorldID       string
	Tick          uint64
	Seed          int64
	ChunkSize     int
	LoadRadius    int
	TickRateHz    int
	BlockDigest   string
	TextureLayers int
	Backlog       []MeshUpdate
}

// World drives the simulation. All state behind it is owned by the single
// goroutine running Step (or Run); transports talk to it only through the
// request channels.
type World struct {
	cfg    Config
	cat    *catalogs.BlockCatalog
	store  *ChunkStore
	logger *log.Logger
	audit  AuditLogger

	tick      atomic.Uint64
	player    Player
	selection RaycastHit
	selected  bool

	edits chan EditRequest
	picks chan pickRequest
	moves chan MoveInput
	joins chan ObserverJoin
	parts chan uint64

	observers    map[uint64]chan MeshUpdate
	nextObserver uint64

	metricChunks    atomic.Int64
	metricObservers atomic.Int64
	metricStepNS    atomic.Int64
}

func NewWorld(cfg Config, cat *catalogs.BlockCatalog, logger *log.Logger, audit AuditLogger) *World {
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 32
	}
	if cfg.TickRateHz < 1 {
		cfg.TickRateHz = 20
	}
	w := &World{
		cfg:       cfg,
		cat:       cat,
		store:     NewChunkStore(cfg.Seed, cfg.ChunkSize, cat, cfg.Generator, logger),
		logger:    logger,
		audit:     audit,
		edits:     make(chan EditRequest, 256),
		picks:     make(chan pickRequest, 16),
		moves:     make(chan MoveInput, 16),
		joins:     make(chan ObserverJoin, 4),
		parts:     make(chan uint64, 4),
		observers: make(map[uint64]chan MeshUpdate),
	}
	w.player.Pos = cfg.SpawnPos()
	return w
}

// SpawnPos is the fixed spawn column, placed above the tallest terrain the
// generator can produce so the player settles onto the surface.
func (c Config) SpawnPos() mgl64.Vec3 {
	top := float64(c.Generator.BaseHeight) + c.Generator.Amplitude + 8
	return mgl64.Vec3{0.5, top, 0.5}
}

func (w *World) Config() Config     { return w.cfg }
func (w *World) Store() *ChunkStore { return w.store }
func (w *World) Tick() uint64       { return w.tick.Load() }
func (w *World) Player() Player     { return w.player }

// Selection returns the block the player is currently aiming at.
func (w *World) Selection() (RaycastHit, bool) {
	return w.selection, w.selected
}

// RequestPlace queues a block placement for the next tick.
func (w *World) RequestPlace(pos Vec3i, block catalogs.BlockID) {
	w.edits <- EditRequest{Kind: EditPlace, Pos: pos, Block: block}
}

// RequestBreak queues a block removal for the next tick.
func (w *World) RequestBreak(pos Vec3i) {
	w.edits <- EditRequest{Kind: EditBreak, Pos: pos}
}

// RequestPick asks for the block id at pos. The result arrives on the
// returned channel after the next tick. Pick-block is a creative-mode tool;
// outside creative the result is OK=false.
func (w *World) RequestPick(pos Vec3i) <-chan PickResult {
	resp := make(chan PickResult, 1)
	w.picks <- pickRequest{pos: pos, resp: resp}
	return resp
}

// SetMovement replaces the player's movement intent.
func (w *World) SetMovement(in MoveInput) {
	w.moves <- in
}

// Join subscribes an observer; the welcome carries world parameters and a
// mesh backlog for every resident chunk.
func (w *World) Join(j ObserverJoin) {
	w.joins <- j
}

// Leave unsubscribes an observer by the id from its welcome. The update
// channel is closed by the world loop.
func (w *World) Leave(id uint64) {
	w.parts <- id
}
