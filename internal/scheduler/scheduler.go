// Package scheduler gates every outbound provider call through one FIFO queue and a
// sliding dispatch window.
//
// At most Config.MaxRequests calls are dispatched in any trailing Config.Window. A
// single loop goroutine owns dispatch; it waits for window capacity, never for
// responses, so slow calls do not hold up the queue. Each caller gets its own Ticket
// that resolves exactly once with either a payload or an error.
package scheduler

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/ratelimit"
)

const (
	// DefaultMaxRequests stays under TMDB's 45-per-10s allowance.
	DefaultMaxRequests  = 40
	DefaultWindow       = 10 * time.Second
	DefaultInterval     = 50 * time.Millisecond
	DefaultSafetyMargin = 50 * time.Millisecond
)

var (
	// ErrEmptyEndpoint is returned by Enqueue for an empty endpoint.
	ErrEmptyEndpoint = errors.New("scheduler: endpoint is empty")
	// ErrInvalidEndpoint is returned by Enqueue when the endpoint is not a path.
	ErrInvalidEndpoint = errors.New("scheduler: endpoint must start with /")
	// ErrClosed is returned by Enqueue after Close, and resolves tickets still queued at Close.
	ErrClosed = errors.New("scheduler: closed")
	// ErrQueueFull is returned by Enqueue when MaxQueue requests are already waiting.
	ErrQueueFull = errors.New("scheduler: queue is full")
	// ErrCanceled resolves a ticket withdrawn before dispatch.
	ErrCanceled = errors.New("scheduler: request canceled before dispatch")
)

// Fetcher performs the actual network call for one dispatched request.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, params Params) (json.RawMessage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, endpoint string, params Params) (json.RawMessage, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	return f(ctx, endpoint, params)
}

// Config holds the process-wide tunables, fixed at construction.
type Config struct {
	// MaxRequests is the dispatch allowance per Window.
	MaxRequests int
	// Window is the length of the trailing interval.
	Window time.Duration
	// Interval is the minimum gap between two dispatches.
	Interval time.Duration
	// SafetyMargin is added to computed window waits to stay clear of the provider's clock.
	SafetyMargin time.Duration
	// MaxQueue caps waiting requests; zero means unbounded.
	MaxQueue int
}

// DefaultConfig returns the TMDB-friendly defaults.
func DefaultConfig() Config {
	return Config{
		MaxRequests:  DefaultMaxRequests,
		Window:       DefaultWindow,
		Interval:     DefaultInterval,
		SafetyMargin: DefaultSafetyMargin,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.MaxRequests < 1:
		return apperrors.NewConfigError("scheduler.maxrequests", fmt.Sprintf("must be at least 1, got %d", c.MaxRequests))
	case c.Window <= 0:
		return apperrors.NewConfigError("scheduler.window", fmt.Sprintf("must be positive, got %s", c.Window))
	case c.Interval < 0:
		return apperrors.NewConfigError("scheduler.interval", fmt.Sprintf("must not be negative, got %s", c.Interval))
	case c.SafetyMargin < 0:
		return apperrors.NewConfigError("scheduler.safetymargin", fmt.Sprintf("must not be negative, got %s", c.SafetyMargin))
	case c.MaxQueue < 0:
		return apperrors.NewConfigError("scheduler.maxqueue", fmt.Sprintf("must not be negative, got %d", c.MaxQueue))
	}
	return nil
}

// Option is a functional option for configuring the Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for scheduler diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scheduler is the rate-limited request gate. Construct one per process and share it.
type Scheduler struct {
	fetcher Fetcher
	cfg     Config
	pacer   *ratelimit.Limiter
	logger  *slog.Logger
	now     func() time.Time

	// ctx is the parent of every dispatched call; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	queue    *list.List // of *pending, FIFO
	window   *window
	running  bool
	closed   bool
	inFlight int
	totals   counters

	loops sync.WaitGroup
	calls sync.WaitGroup
}

type counters struct {
	enqueued   uint64
	dispatched uint64
	succeeded  uint64
	failed     uint64
	canceled   uint64
}

// New creates a scheduler in the Idle state.
func New(fetcher Fetcher, cfg Config, opts ...Option) (*Scheduler, error) {
	if fetcher == nil {
		return nil, apperrors.NewConfigError("scheduler.fetcher", "a fetcher is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		fetcher: fetcher,
		cfg:     cfg,
		pacer:   ratelimit.NewPacer("TMDB", cfg.Interval),
		logger:  slog.Default(),
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		queue:   list.New(),
		window:  newWindow(cfg.Window, cfg.MaxRequests, cfg.SafetyMargin),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Config returns the tunables the scheduler was built with.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Enqueue appends a request to the tail of the queue and returns its ticket.
// Argument errors and a closed or full scheduler are reported here, synchronously;
// provider and network failures only ever arrive through the ticket.
func (s *Scheduler) Enqueue(endpoint string, params Params) (*Ticket, error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEndpoint, endpoint)
	}

	p := &pending{
		id:       uuid.NewString(),
		endpoint: endpoint,
		params:   params.Clone(),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.cfg.MaxQueue > 0 && s.queue.Len() >= s.cfg.MaxQueue {
		return nil, ErrQueueFull
	}

	p.enqueuedAt = s.now()
	p.elem = s.queue.PushBack(p)
	s.totals.enqueued++

	if !s.running {
		s.running = true
		s.loops.Add(1)
		go s.loop()
	}

	return &Ticket{p: p, s: s}, nil
}

// Do enqueues a request and waits for its outcome. If ctx ends while the request is
// still queued, the request is withdrawn.
func (s *Scheduler) Do(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	ticket, err := s.Enqueue(endpoint, params)
	if err != nil {
		return nil, err
	}
	payload, err := ticket.Wait(ctx)
	if err != nil && ctx.Err() != nil {
		s.logger.Debug("Request abandoned by caller", "id", ticket.ID(), "endpoint", ticket.Endpoint(), "error", err)
	}
	return payload, err
}

// Close stops accepting requests, resolves queued tickets with ErrClosed, cancels
// in-flight calls and waits for all scheduler goroutines to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	dropped := make([]*pending, 0, s.queue.Len())
	for e := s.queue.Front(); e != nil; e = e.Next() {
		p := e.Value.(*pending)
		p.elem = nil
		dropped = append(dropped, p)
	}
	s.queue.Init()
	s.mu.Unlock()

	for _, p := range dropped {
		p.resolve(Result{Err: ErrClosed})
	}

	s.cancel()
	s.loops.Wait()
	s.calls.Wait()

	s.logger.Info("Request scheduler closed", "dropped", len(dropped))
}

// loop is the single dispatch loop. It runs while the queue is non-empty.
func (s *Scheduler) loop() {
	defer s.loops.Done()

	for {
		if !s.hasWork() {
			return
		}

		if err := s.pacer.Wait(s.ctx); err != nil {
			s.markIdle()
			return
		}

		p, wait := s.take()
		if p != nil {
			s.dispatch(p)
			continue
		}
		if wait == 0 {
			// queue emptied by Cancel while pacing
			continue
		}

		s.logger.Debug("Rate window full, waiting", "limiter", s.pacer.Name(), "wait", wait, "limit", s.cfg.MaxRequests, "window", s.cfg.Window)
		if !s.sleep(wait) {
			s.markIdle()
			return
		}
	}
}

// hasWork reports whether the queue has entries, switching to Idle when it does not.
// The check and the state change happen under one lock so Enqueue never misses a wakeup.
func (s *Scheduler) hasWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		s.running = false
		return false
	}
	return true
}

func (s *Scheduler) markIdle() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// take pops the queue head if the window has capacity, recording the dispatch time.
// Otherwise it returns how long to wait before re-evaluating.
func (s *Scheduler) take() (*pending, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queue.Len() == 0 {
		return nil, 0
	}

	now := s.now()
	s.window.prune(now)
	if wait := s.window.wait(now); wait > 0 {
		return nil, wait
	}

	p := s.queue.Remove(s.queue.Front()).(*pending)
	p.elem = nil
	p.dispatchedAt = now
	s.window.record(now)
	s.inFlight++
	s.totals.dispatched++

	return p, 0
}

// dispatch issues the network call without blocking the loop.
func (s *Scheduler) dispatch(p *pending) {
	s.calls.Add(1)
	go func() {
		defer s.calls.Done()

		payload, err := s.fetcher.Fetch(s.ctx, p.endpoint, p.params)

		s.mu.Lock()
		s.inFlight--
		if err != nil {
			s.totals.failed++
		} else {
			s.totals.succeeded++
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Debug("Provider request failed", "id", p.id, "endpoint", p.endpoint, "error", err)
			p.resolve(Result{Err: err})
			return
		}
		p.resolve(Result{Payload: payload})
	}()
}

func (s *Scheduler) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// withdraw removes a still-queued request. It reports false once the request has been
// dispatched or resolved.
func (s *Scheduler) withdraw(p *pending) bool {
	s.mu.Lock()
	if p.elem == nil {
		s.mu.Unlock()
		return false
	}
	s.queue.Remove(p.elem)
	p.elem = nil
	s.totals.canceled++
	s.mu.Unlock()

	p.resolve(Result{Err: ErrCanceled})
	return true
}
