package scheduler

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Result is the outcome of one request: a payload on success, otherwise Err.
type Result struct {
	Payload json.RawMessage
	Err     error
}

// pending is a queued request and its single-assignment completion slot.
type pending struct {
	id           string
	endpoint     string
	params       Params
	enqueuedAt   time.Time
	dispatchedAt time.Time

	// elem is non-nil while the request sits in the queue; guarded by Scheduler.mu.
	elem *list.Element

	once   sync.Once
	result Result
	done   chan struct{}
}

func (p *pending) resolve(r Result) {
	p.once.Do(func() {
		p.result = r
		close(p.done)
	})
}

// Ticket is the caller's handle on an enqueued request.
type Ticket struct {
	p *pending
	s *Scheduler
}

// ID returns the request's unique identifier.
func (t *Ticket) ID() string {
	return t.p.id
}

// Endpoint returns the endpoint the request targets.
func (t *Ticket) Endpoint() string {
	return t.p.endpoint
}

// Done is closed once the request has resolved.
func (t *Ticket) Done() <-chan struct{} {
	return t.p.done
}

// Result returns the outcome. It is only meaningful after Done is closed; before that
// it reports false.
func (t *Ticket) Result() (Result, bool) {
	select {
	case <-t.p.done:
		return t.p.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the request resolves or ctx ends. When ctx ends first, a request
// that is still queued is withdrawn; one already in flight keeps running and its
// outcome is discarded.
func (t *Ticket) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-t.p.done:
		return t.p.result.Payload, t.p.result.Err
	case <-ctx.Done():
		if r, ok := t.Result(); ok {
			return r.Payload, r.Err
		}
		t.Cancel()
		return nil, ctx.Err()
	}
}

// Cancel withdraws the request if it has not been dispatched yet, resolving it with
// ErrCanceled. It reports whether the request was withdrawn.
func (t *Ticket) Cancel() bool {
	return t.s.withdraw(t.p)
}
