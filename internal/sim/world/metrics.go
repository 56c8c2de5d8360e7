package world

// WorldMetrics is a read-only snapshot safe to take from any goroutine.
type WorldMetrics struct {
	Tick         uint64  `json:"tick"`
	LoadedChunks int     `json:"loaded_chunks"`
	Observers    int     `json:"observers"`
	StepMS       float64 `json:"step_ms"`
	QueueDepths  struct {
		Edits int `json:"edits"`
		Picks int `json:"picks"`
		Moves int `json:"moves"`
	} `json:"queue_depths"`
}

func (w *World) Metrics() WorldMetrics {
	var m WorldMetrics
	m.Tick = w.tick.Load()
	m.LoadedChunks = int(w.metricChunks.Load())
	m.Observers = int(w.metricObservers.Load())
	m.StepMS = float64(w.metricStepNS.Load()) / 1e6
	m.QueueDepths.Edits = len(w.edits)
	m.QueueDepths.Picks = len(w.picks)
	m.QueueDepths.Moves = len(w.moves)
	return m
}
