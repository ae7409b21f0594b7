package scheduler

import "time"

// window records dispatch times inside the trailing interval.
// It is only touched with Scheduler.mu held.
type window struct {
	size   time.Duration
	limit  int
	margin time.Duration
	stamps []time.Time
}

func newWindow(size time.Duration, limit int, margin time.Duration) *window {
	return &window{
		size:   size,
		limit:  limit,
		margin: margin,
		stamps: make([]time.Time, 0, limit),
	}
}

// prune drops timestamps that have left the window.
func (w *window) prune(now time.Time) {
	drop := 0
	for drop < len(w.stamps) && now.Sub(w.stamps[drop]) >= w.size {
		drop++
	}
	if drop > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[drop:]...)
	}
}

// wait returns how long to hold off before the next dispatch, or zero when the window
// has capacity. Call prune first.
func (w *window) wait(now time.Time) time.Duration {
	if len(w.stamps) < w.limit {
		return 0
	}
	oldest := w.stamps[0]
	return w.size - now.Sub(oldest) + w.margin
}

func (w *window) record(now time.Time) {
	w.stamps = append(w.stamps, now)
}

// count reports dispatches inside the window at now without pruning.
func (w *window) count(now time.Time) int {
	n := 0
	for _, t := range w.stamps {
		if now.Sub(t) < w.size {
			n++
		}
	}
	return n
}
