package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/offdroid/cobble/internal/persistence/indexdb"
	persistlog "github.com/offdroid/cobble/internal/persistence/log"
	"github.com/offdroid/cobble/internal/sim/catalogs"
	"github.com/offdroid/cobble/internal/sim/tuning"
	"github.com/offdroid/cobble/internal/sim/world"
	"github.com/offdroid/cobble/internal/transport/observer"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		worldID     = flag.String("world", "world_1", "world id")
		seed        = flag.Int64("seed", 0, "world seed override (0 keeps the tuning value)")
		configDir   = flag.String("configs", "./configs", "config directory")
		tuningPath  = flag.String("tuning", "", "path to cobble.yaml (default: <configs>/cobble.yaml)")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		disableDB   = flag.Bool("disable_db", false, "disable the sqlite runtime index")
		enablePprof = flag.Bool("pprof", false, "serve /debug/pprof endpoints")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cat, err := catalogs.Load(filepath.Join(*configDir, "blocks.json"))
	if err != nil {
		logger.Fatalf("load block catalog: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "cobble.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *seed != 0 {
		tune.World.Seed = *seed
	}
	cfg := world.ConfigFromTuning(*worldID, tune)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("create world dir: %v", err)
	}

	editLog := persistlog.NewEditLogger(worldDir)
	defer editLog.Close()
	var audit world.AuditLogger = editLog

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		runID := fmt.Sprintf("%s-%d", *worldID, time.Now().UTC().UnixNano())
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"), indexdb.RunMeta{
			RunID:       runID,
			StartedAt:   time.Now(),
			WorldID:     *worldID,
			Seed:        cfg.Seed,
			ChunkSize:   cfg.ChunkSize,
			BlockDigest: cat.DefsDigest,
		})
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		audit = multiAudit{a: editLog, b: idx}
	}

	w := world.NewWorld(cfg, cat, logger, audit)

	obs, err := observer.NewServer(w, logger)
	if err != nil {
		logger.Fatalf("observer: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if idx != nil {
		go recordChunkDigests(ctx, w, idx)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/observer", obs)
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(struct {
			WorldID string             `json:"world_id"`
			Metrics world.WorldMetrics `json:"metrics"`
		}{WorldID: *worldID, Metrics: w.Metrics()})
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()

		fmt.Fprintf(rw, "# HELP cobble_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE cobble_world_tick gauge\n")
		fmt.Fprintf(rw, "cobble_world_tick{world=%q} %d\n", *worldID, m.Tick)

		fmt.Fprintf(rw, "# HELP cobble_world_loaded_chunks Loaded chunk count.\n")
		fmt.Fprintf(rw, "# TYPE cobble_world_loaded_chunks gauge\n")
		fmt.Fprintf(rw, "cobble_world_loaded_chunks{world=%q} %d\n", *worldID, m.LoadedChunks)

		fmt.Fprintf(rw, "# HELP cobble_world_observers Connected observer count.\n")
		fmt.Fprintf(rw, "# TYPE cobble_world_observers gauge\n")
		fmt.Fprintf(rw, "cobble_world_observers{world=%q} %d\n", *worldID, m.Observers)

		fmt.Fprintf(rw, "# HELP cobble_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE cobble_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "cobble_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "edits", m.QueueDepths.Edits)
		fmt.Fprintf(rw, "cobble_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "picks", m.QueueDepths.Picks)
		fmt.Fprintf(rw, "cobble_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "moves", m.QueueDepths.Moves)

		fmt.Fprintf(rw, "# HELP cobble_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE cobble_world_step_ms gauge\n")
		fmt.Fprintf(rw, "cobble_world_step_ms{world=%q} %.3f\n", *worldID, m.StepMS)
	})
	if *enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{Addr: *addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(ctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	})

	logger.Printf("listening addr=%s world=%s seed=%d chunk_size=%d tick_rate=%dhz",
		*addr, *worldID, cfg.Seed, cfg.ChunkSize, cfg.TickRateHz)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("server stopped: %v", err)
	}
	logger.Printf("bye")
}

// multiAudit fans one edit entry out to the JSONL log and the sqlite index.
type multiAudit struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAudit) WriteEdit(e world.AuditEntry) error {
	err := m.a.WriteEdit(e)
	if err2 := m.b.WriteEdit(e); err == nil {
		err = err2
	}
	return err
}

// recordChunkDigests subscribes to the mesh stream and mirrors the latest
// chunk digests into the index, for offline determinism checks.
func recordChunkDigests(ctx context.Context, w *world.World, idx *indexdb.SQLiteIndex) {
	out := make(chan world.MeshUpdate, 1024)
	resp := make(chan world.ObserverWelcome, 1)
	w.Join(world.ObserverJoin{Out: out, Resp: resp})
	welcome := <-resp
	for _, u := range welcome.Backlog {
		idx.RecordChunk(u.Key, u.Tick, u.Digest)
	}
	for {
		select {
		case <-ctx.Done():
			w.Leave(welcome.ID)
			return
		case u, ok := <-out:
			if !ok {
				return
			}
			if u.Mesh != nil {
				idx.RecordChunk(u.Key, u.Tick, u.Digest)
			}
		}
	}
}
