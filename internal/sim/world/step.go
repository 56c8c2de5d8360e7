package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/offdroid/cobble/internal/sim/catalogs"
	"github.com/offdroid/cobble/internal/sim/world/logic/mathx"
)

// Step advances the world by dt seconds. The phases run in a fixed order:
// chunk membership, queued edits, remesh of dirty chunks, movement
// resolution, then aim selection and pick answers. Everything queued before
// the call is visible to this tick.
func (w *World) Step(dt float64) {
	start := time.Now()
	tick := w.tick.Load()

	for {
		select {
		case j := <-w.joins:
			w.handleJoin(j, tick)
			continue
		case id := <-w.parts:
			if out, ok := w.observers[id]; ok {
				delete(w.observers, id)
				close(out)
			}
			continue
		case in := <-w.moves:
			w.player.Wish = in.Wish
			w.player.Look = in.Look
			w.player.Flags = in.Flags
			continue
		default:
		}
		break
	}

	updates := w.ensureLoaded(tick)

	for {
		select {
		case e := <-w.edits:
			w.applyEdit(tick, e)
			continue
		default:
		}
		break
	}

	for _, key := range w.store.LoadedChunkKeys() {
		ch, _ := w.store.Get(key)
		if ch == nil || !ch.Dirty() {
			continue
		}
		mesh, _ := w.store.Remesh(key)
		updates = append(updates, MeshUpdate{Tick: tick, Key: key, Digest: ch.Digest(), Mesh: mesh})
	}

	w.integrate(dt)
	w.updateSelection()

	for {
		select {
		case p := <-w.picks:
			p.resp <- w.answerPick(p.pos)
			continue
		default:
		}
		break
	}

	w.broadcast(updates)
	w.metricChunks.Store(int64(len(w.store.chunks)))
	w.metricObservers.Store(int64(len(w.observers)))
	w.metricStepNS.Store(time.Since(start).Nanoseconds())
	w.tick.Add(1)
}

// ensureLoaded keeps a cube of chunks resident around the player: load
// radius for loading, one chunk of hysteresis before unloading. Returns
// unload notifications for observers.
func (w *World) ensureLoaded(tick uint64) []MeshUpdate {
	r := w.cfg.LoadRadius
	if r < 0 {
		r = 0
	}
	side := w.store.Side()
	center := ChunkKey{
		CX: mathx.FloorDiv(mathx.FloorToInt(w.player.Pos.X()), side),
		CY: mathx.FloorDiv(mathx.FloorToInt(w.player.Pos.Y()), side),
		CZ: mathx.FloorDiv(mathx.FloorToInt(w.player.Pos.Z()), side),
	}

	for dy := -r; dy <= r; dy++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				w.store.Load(ChunkKey{CX: center.CX + dx, CY: center.CY + dy, CZ: center.CZ + dz})
			}
		}
	}

	var updates []MeshUpdate
	for _, key := range w.store.LoadedChunkKeys() {
		d := mathx.AbsInt(key.CX - center.CX)
		if dy := mathx.AbsInt(key.CY - center.CY); dy > d {
			d = dy
		}
		if dz := mathx.AbsInt(key.CZ - center.CZ); dz > d {
			d = dz
		}
		if d > r+1 {
			w.store.Unload(key)
			updates = append(updates, MeshUpdate{Tick: tick, Key: key})
		}
	}
	return updates
}

// applyEdit runs one queued edit through validation and the store's mutation
// path, then records the outcome.
func (w *World) applyEdit(tick uint64, e EditRequest) {
	block := e.Block
	if e.Kind == EditBreak {
		block = catalogs.Air
	}
	reason := w.checkEdit(e)
	if reason == "" {
		if err := w.store.ApplyEdit(e.Pos, block); err != nil {
			reason = err.Error()
		}
	}
	if reason != "" {
		w.logger.Printf("edit rejected kind=%s pos=%v: %s", e.Kind, e.Pos, reason)
	}
	if w.audit == nil {
		return
	}
	entry := AuditEntry{
		At:      time.Now().UTC(),
		Tick:    tick,
		Kind:    string(e.Kind),
		X:       e.Pos.X,
		Y:       e.Pos.Y,
		Z:       e.Pos.Z,
		Block:   uint16(block),
		Applied: reason == "",
		Reason:  reason,
	}
	if err := w.audit.WriteEdit(entry); err != nil {
		w.logger.Printf("audit write failed: %v", err)
	}
}

func (w *World) checkEdit(e EditRequest) string {
	if e.Pos.Y == 0 && !w.cfg.BreakableBedrock {
		return "world floor is locked"
	}
	if e.Kind == EditBreak {
		id, ok := w.store.BlockAt(e.Pos)
		if !ok {
			return "chunk not loaded"
		}
		if !w.cat.IsBreakable(id) {
			return "block is unbreakable"
		}
		return ""
	}
	if !w.cat.Known(e.Block) {
		return "unknown block id"
	}
	return ""
}

// integrate moves the player through the collision resolver. A positive
// vertical wish is a jump and only takes effect on the ground; in fly mode
// it is direct vertical movement.
func (w *World) integrate(dt float64) {
	ph := w.cfg.Physics
	p := &w.player
	box := PlayerBox(p.Pos, ph.PlayerWidth, ph.PlayerHeight)

	vel := mgl64.Vec3{p.Wish.X(), p.Vel.Y(), p.Wish.Z()}
	if p.Flags.Fly {
		vel[1] = p.Wish.Y()
	} else if p.Wish.Y() > 0 && w.grounded(box) {
		vel[1] = ph.JumpSpeed
	}

	box, vel = w.store.Resolve(box, vel, dt, ph.Gravity, p.Flags)
	p.Pos = box.BottomCenter()
	p.Vel = vel
}

func (w *World) grounded(box AABB) bool {
	_, blocked := w.store.sweepAxis(box, 1, -1e-6)
	return blocked
}

func (w *World) updateSelection() {
	p := w.player
	if p.Look.Len() == 0 {
		w.selected = false
		return
	}
	eye := p.Pos.Add(mgl64.Vec3{0, w.cfg.Physics.PlayerHeight * 0.9, 0})
	w.selection, w.selected = w.store.Raycast(eye, p.Look, w.cfg.Physics.Reach)
}

func (w *World) answerPick(pos Vec3i) PickResult {
	if !w.cfg.Creative {
		return PickResult{}
	}
	id, ok := w.store.BlockAt(pos)
	if !ok || id == catalogs.Air {
		return PickResult{}
	}
	return PickResult{Block: id, OK: true}
}

func (w *World) handleJoin(j ObserverJoin, tick uint64) {
	id := w.nextObserver
	w.nextObserver++
	w.observers[id] = j.Out

	var backlog []MeshUpdate
	for _, key := range w.store.LoadedChunkKeys() {
		ch, _ := w.store.Get(key)
		if ch == nil || ch.Mesh() == nil {
			continue
		}
		backlog = append(backlog, MeshUpdate{Tick: tick, Key: key, Digest: ch.Digest(), Mesh: ch.Mesh()})
	}
	j.Resp <- ObserverWelcome{
		ID:            id,
		WorldID:       w.cfg.WorldID,
		Tick:          tick,
		Seed:          w.cfg.Seed,
		ChunkSize:     w.cfg.ChunkSize,
		LoadRadius:    w.cfg.LoadRadius,
		TickRateHz:    w.cfg.TickRateHz,
		BlockDigest:   w.cat.DefsDigest,
		TextureLayers: catalogs.TextureLayers,
		Backlog:       backlog,
	}
}

func (w *World) broadcast(updates []MeshUpdate) {
	if len(w.observers) == 0 {
		return
	}
	for _, u := range updates {
		for _, out := range w.observers {
			select {
			case out <- u:
			default:
			}
		}
	}
}
