package world

import (
	"context"
	"time"
)

// statusEvery is how many ticks pass between status log lines.
const statusEvery = 600

// Run drives Step at the configured tick rate until the context is
// cancelled. Wall-clock hiccups are clamped so a stalled process does not
// integrate a huge dt on resume.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt > 0.25 {
				dt = 0.25
			}
			w.Step(dt)
			if t := w.tick.Load(); t%statusEvery == 0 {
				w.logger.Printf("tick=%d chunks=%d observers=%d pos=%.1f,%.1f,%.1f",
					t, len(w.store.chunks), len(w.observers),
					w.player.Pos.X(), w.player.Pos.Y(), w.player.Pos.Z())
			}
		}
	}
}
