package scheduler

// State is the dispatch loop state.
type State int

const (
	// Idle means no loop iteration is scheduled.
	Idle State = iota
	// Running means the loop is dispatching or waiting for window capacity.
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Stats is a point-in-time snapshot of the scheduler.
type Stats struct {
	State      State  `json:"state"`
	Queued     int    `json:"queued"`
	InWindow   int    `json:"in_window"`
	InFlight   int    `json:"in_flight"`
	Enqueued   uint64 `json:"enqueued"`
	Dispatched uint64 `json:"dispatched"`
	Succeeded  uint64 `json:"succeeded"`
	Failed     uint64 `json:"failed"`
	Canceled   uint64 `json:"canceled"`
}

// Stats returns a snapshot of queue depth, window usage and lifetime counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := Idle
	if s.running {
		state = Running
	}

	return Stats{
		State:      state,
		Queued:     s.queue.Len(),
		InWindow:   s.window.count(s.now()),
		InFlight:   s.inFlight,
		Enqueued:   s.totals.enqueued,
		Dispatched: s.totals.dispatched,
		Succeeded:  s.totals.succeeded,
		Failed:     s.totals.failed,
		Canceled:   s.totals.canceled,
	}
}

// MarshalText renders the state as "idle" or "running".
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
