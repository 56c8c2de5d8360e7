// Package indexdb maintains a queryable sqlite index of runs and edits.
// It is a secondary index: writes are asynchronous and dropped under
// pressure, the compressed JSONL logs remain the source of truth.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/offdroid/cobble/internal/sim/world"
)

type SQLiteIndex struct {
	db    *sql.DB
	runID string

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqEdit reqKind = iota + 1
	reqChunk
)

type req struct {
	kind  reqKind
	edit  world.AuditEntry
	chunk chunkRow
}

type chunkRow struct {
	Tick   uint64
	CX     int
	CY     int
	CZ     int
	Digest string
}

// RunMeta is written once per process start.
type RunMeta struct {
	RunID       string
	StartedAt   time.Time
	WorldID     string
	Seed        int64
	ChunkSize   int
	BlockDigest string
}

func OpenSQLite(path string, meta RunMeta) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if meta.RunID == "" {
		return nil, fmt.Errorf("empty run id")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := insertRun(db, meta); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:    db,
		runID: meta.RunID,
		// High buffer: edit bursts must never stall the world loop.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			world_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			chunk_size INTEGER NOT NULL,
			block_digest TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			run_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block INTEGER NOT NULL,
			applied INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_pos_tick ON edits(x, z, y, tick);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			run_id TEXT NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (run_id, cx, cy, cz)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func insertRun(db *sql.DB, meta RunMeta) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO runs(run_id,started_at,world_id,seed,chunk_size,block_digest) VALUES(?,?,?,?,?,?)`,
		meta.RunID,
		meta.StartedAt.UTC().Format(time.RFC3339Nano),
		meta.WorldID,
		meta.Seed,
		meta.ChunkSize,
		meta.BlockDigest,
	)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteEdit queues an edit row; it satisfies world.AuditLogger and never
// blocks.
func (s *SQLiteIndex) WriteEdit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqEdit, edit: entry}:
	default:
	}
	return nil
}

// RecordChunk upserts the latest digest seen for a chunk, used to audit
// regeneration determinism across runs of the same seed.
func (s *SQLiteIndex) RecordChunk(key world.ChunkKey, tick uint64, digest string) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqChunk, chunk: chunkRow{Tick: tick, CX: key.CX, CY: key.CY, CZ: key.CZ, Digest: digest}}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEdit, _ := s.db.Prepare(`INSERT OR REPLACE INTO edits(run_id,tick,seq,kind,x,y,z,block,applied,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(run_id,cx,cy,cz,tick,digest) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertEdit != nil {
			_ = insertEdit.Close()
		}
		if insertChunk != nil {
			_ = insertChunk.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastEditTick uint64
		editSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqEdit:
			if insertEdit == nil {
				break
			}
			if r.edit.Tick != lastEditTick {
				lastEditTick = r.edit.Tick
				editSeq = 0
			}
			b, _ := json.Marshal(r.edit)
			applied := 0
			if r.edit.Applied {
				applied = 1
			}
			if _, err := tx.Stmt(insertEdit).Exec(
				s.runID,
				int64(r.edit.Tick),
				editSeq,
				r.edit.Kind,
				r.edit.X, r.edit.Y, r.edit.Z,
				int64(r.edit.Block),
				applied,
				r.edit.Reason,
				string(b),
			); err != nil {
				rollback()
				continue
			}
			editSeq++
			opCount++
		case reqChunk:
			if insertChunk == nil {
				break
			}
			if _, err := tx.Stmt(insertChunk).Exec(
				s.runID,
				r.chunk.CX, r.chunk.CY, r.chunk.CZ,
				int64(r.chunk.Tick),
				r.chunk.Digest,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}
	commit()
}

// EditCount is a convenience for tooling and tests.
func (s *SQLiteIndex) EditCount(runID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM edits WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}
