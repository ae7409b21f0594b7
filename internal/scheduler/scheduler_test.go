package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lepinkainen/marquee/internal/errors"
)

// echoFetcher answers every request with its endpoint, optionally routing some
// endpoints to custom behaviour.
type echoFetcher struct {
	mu       sync.Mutex
	order    []string
	handlers map[string]func(ctx context.Context) (json.RawMessage, error)
}

func newEchoFetcher() *echoFetcher {
	return &echoFetcher{handlers: make(map[string]func(ctx context.Context) (json.RawMessage, error))}
}

func (f *echoFetcher) handle(endpoint string, h func(ctx context.Context) (json.RawMessage, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[endpoint] = h
}

func (f *echoFetcher) Fetch(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	f.mu.Lock()
	f.order = append(f.order, endpoint)
	h := f.handlers[endpoint]
	f.mu.Unlock()

	if h != nil {
		return h(ctx)
	}
	return json.RawMessage(fmt.Sprintf(`{"endpoint":%q,"query":%q}`, endpoint, params.Encode())), nil
}

func (f *echoFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

func newTestScheduler(t *testing.T, fetcher Fetcher, cfg Config) *Scheduler {
	t.Helper()
	s, err := New(fetcher, cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func enqueueN(t *testing.T, s *Scheduler, n int, endpoint func(i int) string) []*Ticket {
	t.Helper()
	tickets := make([]*Ticket, n)
	for i := range tickets {
		ticket, err := s.Enqueue(endpoint(i), nil)
		require.NoError(t, err)
		tickets[i] = ticket
	}
	return tickets
}

func waitAll(t *testing.T, tickets []*Ticket, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for i, ticket := range tickets {
		select {
		case <-ticket.Done():
		case <-deadline:
			t.Fatalf("ticket %d (%s) did not resolve within %s", i, ticket.Endpoint(), timeout)
		}
	}
}

func dispatchTimes(tickets []*Ticket) []time.Time {
	times := make([]time.Time, len(tickets))
	for i, ticket := range tickets {
		times[i] = ticket.p.dispatchedAt
	}
	return times
}

func path(i int) string { return fmt.Sprintf("/movie/%d", i) }

func TestNewRejectsInvalidConfig(t *testing.T) {
	fetcher := newEchoFetcher()

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"zero max requests", func(c *Config) { c.MaxRequests = 0 }, "scheduler.maxrequests"},
		{"zero window", func(c *Config) { c.Window = 0 }, "scheduler.window"},
		{"negative interval", func(c *Config) { c.Interval = -time.Millisecond }, "scheduler.interval"},
		{"negative margin", func(c *Config) { c.SafetyMargin = -time.Millisecond }, "scheduler.safetymargin"},
		{"negative queue", func(c *Config) { c.MaxQueue = -1 }, "scheduler.maxqueue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(fetcher, cfg)
			require.Error(t, err)
			var cfgErr *apperrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}

	_, err := New(nil, DefaultConfig())
	assert.True(t, apperrors.IsConfigError(err))
}

func TestEnqueueRejectsBadEndpointsSynchronously(t *testing.T) {
	fetcher := newEchoFetcher()
	s := newTestScheduler(t, fetcher, DefaultConfig())

	_, err := s.Enqueue("", nil)
	assert.ErrorIs(t, err, ErrEmptyEndpoint)

	_, err = s.Enqueue("movie/1", nil)
	assert.ErrorIs(t, err, ErrInvalidEndpoint)

	assert.Equal(t, Idle, s.Stats().State)
	assert.Zero(t, fetcher.calls())
}

func TestDoReturnsPayload(t *testing.T) {
	s := newTestScheduler(t, newEchoFetcher(), DefaultConfig())

	payload, err := s.Do(context.Background(), "/search/multi", NewParams("query", "alien", "page", "1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpoint":"/search/multi","query":"query=alien&page=1"}`, string(payload))
}

func TestRateInvariantUnderLoad(t *testing.T) {
	cfg := Config{MaxRequests: 5, Window: 200 * time.Millisecond}
	s := newTestScheduler(t, newEchoFetcher(), cfg)

	tickets := enqueueN(t, s, 10*cfg.MaxRequests, path)
	waitAll(t, tickets, 10*time.Second)

	times := dispatchTimes(tickets)
	// any MaxRequests+1 consecutive dispatches must span at least one window
	for i := 0; i+cfg.MaxRequests < len(times); i++ {
		span := times[i+cfg.MaxRequests].Sub(times[i])
		assert.GreaterOrEqual(t, span, cfg.Window, "dispatches %d..%d within one window", i, i+cfg.MaxRequests)
	}
}

func TestDispatchOrderIsFIFO(t *testing.T) {
	cfg := Config{MaxRequests: 4, Window: 100 * time.Millisecond, Interval: 5 * time.Millisecond}
	fetcher := newEchoFetcher()
	s := newTestScheduler(t, fetcher, cfg)

	tickets := enqueueN(t, s, 12, path)
	waitAll(t, tickets, 5*time.Second)

	times := dispatchTimes(tickets)
	for i := 1; i < len(times); i++ {
		assert.False(t, times[i].Before(times[i-1]), "request %d dispatched before request %d", i, i-1)
	}
}

func TestFailureIsIsolated(t *testing.T) {
	fetcher := newEchoFetcher()
	fetcher.handle("/movie/1", func(context.Context) (json.RawMessage, error) {
		return nil, apperrors.NewProviderError(500, "/movie/1", "")
	})
	s := newTestScheduler(t, fetcher, Config{MaxRequests: 10, Window: time.Second})

	tickets := enqueueN(t, s, 3, path)
	waitAll(t, tickets, 2*time.Second)

	for i, ticket := range tickets {
		result, ok := ticket.Result()
		require.True(t, ok)
		if i == 1 {
			require.Error(t, result.Err)
			assert.Equal(t, "Error 500: Failed to fetch from provider", result.Err.Error())
			assert.Nil(t, result.Payload)
			continue
		}
		require.NoError(t, result.Err, "request %d", i)
		assert.NotEmpty(t, result.Payload)
	}

	stats := s.Stats()
	assert.Equal(t, uint64(3), stats.Dispatched)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(2), stats.Succeeded)
}

func TestNoHeadOfLineBlocking(t *testing.T) {
	release := make(chan struct{})
	fetcher := newEchoFetcher()
	fetcher.handle("/movie/0", func(ctx context.Context) (json.RawMessage, error) {
		select {
		case <-release:
			return json.RawMessage(`{"slow":true}`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	s := newTestScheduler(t, fetcher, Config{MaxRequests: 5, Window: time.Second, Interval: 10 * time.Millisecond})

	tickets := enqueueN(t, s, 5, path)

	// everything behind the slow head completes while it is still in flight
	waitAll(t, tickets[1:], 2*time.Second)
	_, resolved := tickets[0].Result()
	assert.False(t, resolved)
	assert.Equal(t, 1, s.Stats().InFlight)

	close(release)
	waitAll(t, tickets[:1], time.Second)
	payload, err := tickets[0].Wait(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"slow":true}`, string(payload))
}

func TestIdleSchedulerWakesOnEnqueue(t *testing.T) {
	s := newTestScheduler(t, newEchoFetcher(), Config{MaxRequests: 2, Window: 100 * time.Millisecond})

	_, err := s.Do(context.Background(), "/movie/1", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Stats().State == Idle }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = s.Do(ctx, "/movie/2", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), s.Stats().Dispatched)
}

func TestConcreteDispatchSchedule(t *testing.T) {
	cfg := Config{
		MaxRequests:  3,
		Window:       time.Second,
		Interval:     50 * time.Millisecond,
		SafetyMargin: 50 * time.Millisecond,
	}
	s := newTestScheduler(t, newEchoFetcher(), cfg)

	start := time.Now()
	tickets := enqueueN(t, s, 7, path)
	waitAll(t, tickets, 5*time.Second)

	offsets := make([]time.Duration, len(tickets))
	for i, at := range dispatchTimes(tickets) {
		offsets[i] = at.Sub(start)
	}

	const tolerance = 40 * time.Millisecond
	assert.Less(t, offsets[0], tolerance)
	assert.InDelta(t, float64(50*time.Millisecond), float64(offsets[1]), float64(tolerance))
	assert.InDelta(t, float64(100*time.Millisecond), float64(offsets[2]), float64(tolerance))
	for i := 3; i < 6; i++ {
		assert.GreaterOrEqual(t, offsets[i], time.Second, "request %d", i+1)
		assert.Less(t, offsets[i], 1300*time.Millisecond, "request %d", i+1)
	}
	assert.GreaterOrEqual(t, offsets[6], 1050*time.Millisecond)
}

func TestQueueBound(t *testing.T) {
	s := newTestScheduler(t, newEchoFetcher(), Config{MaxRequests: 1, Window: time.Hour, MaxQueue: 2})

	first, err := s.Enqueue("/movie/1", nil)
	require.NoError(t, err)
	<-first.Done()

	_, err = s.Enqueue("/movie/2", nil)
	require.NoError(t, err)
	_, err = s.Enqueue("/movie/3", nil)
	require.NoError(t, err)

	_, err = s.Enqueue("/movie/4", nil)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, s.Stats().Queued)
}

func TestCancelWithdrawsQueuedRequest(t *testing.T) {
	fetcher := newEchoFetcher()
	s := newTestScheduler(t, fetcher, Config{MaxRequests: 1, Window: time.Hour})

	first, err := s.Enqueue("/movie/1", nil)
	require.NoError(t, err)
	<-first.Done()

	queued, err := s.Enqueue("/movie/2", nil)
	require.NoError(t, err)

	assert.False(t, first.Cancel(), "dispatched request cannot be withdrawn")
	assert.True(t, queued.Cancel())
	assert.False(t, queued.Cancel(), "second cancel is a no-op")

	_, err = queued.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, 1, fetcher.calls())
	assert.Equal(t, uint64(1), s.Stats().Canceled)
}

func TestWaitContextWithdrawsQueuedRequest(t *testing.T) {
	s := newTestScheduler(t, newEchoFetcher(), Config{MaxRequests: 1, Window: time.Hour})

	_, err := s.Do(context.Background(), "/movie/1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Do(ctx, "/movie/2", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Eventually(t, func() bool { return s.Stats().Queued == 0 }, time.Second, 5*time.Millisecond)
}

func TestDoLogsAbandonedTicket(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := New(newEchoFetcher(), Config{MaxRequests: 1, Window: time.Hour}, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.Do(context.Background(), "/movie/1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Do(ctx, "/movie/2", nil)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Contains(t, logs.String(), "Request abandoned by caller")
	assert.Contains(t, logs.String(), "endpoint=/movie/2")
	assert.Regexp(t, `id=[0-9a-f-]{36}`, logs.String())
}

func TestTicketOutcomeVisibleToEveryObserver(t *testing.T) {
	release := make(chan struct{})
	fetcher := newEchoFetcher()
	fetcher.handle("/movie/603", func(ctx context.Context) (json.RawMessage, error) {
		<-release
		return json.RawMessage(`{"id":603}`), nil
	})
	s := newTestScheduler(t, fetcher, Config{MaxRequests: 5, Window: time.Second})

	ticket, err := s.Enqueue("/movie/603", nil)
	require.NoError(t, err)
	_, ok := ticket.Result()
	assert.False(t, ok, "no outcome before the request resolves")

	var wg sync.WaitGroup
	payloads := make([]string, 3)
	for i := range payloads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ticket.Done()
			if r, ok := ticket.Result(); ok {
				payloads[i] = string(r.Payload)
			}
		}()
	}
	close(release)
	wg.Wait()

	for _, p := range payloads {
		assert.Equal(t, `{"id":603}`, p)
	}
}

func TestTicketIDsAreUnique(t *testing.T) {
	s := newTestScheduler(t, newEchoFetcher(), Config{MaxRequests: 10, Window: time.Second})

	tickets := enqueueN(t, s, 5, path)
	seen := make(map[string]bool)
	for _, ticket := range tickets {
		assert.NotEmpty(t, ticket.ID())
		assert.False(t, seen[ticket.ID()], "duplicate id %s", ticket.ID())
		seen[ticket.ID()] = true
	}
	waitAll(t, tickets, time.Second)
}

func TestCloseResolvesQueuedAndCancelsInFlight(t *testing.T) {
	fetcher := newEchoFetcher()
	fetcher.handle("/movie/1", func(ctx context.Context) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	s, err := New(fetcher, Config{MaxRequests: 1, Window: time.Hour})
	require.NoError(t, err)

	inFlight, err := s.Enqueue("/movie/1", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.Stats().InFlight == 1 }, time.Second, 5*time.Millisecond)

	queued, err := s.Enqueue("/movie/2", nil)
	require.NoError(t, err)

	s.Close()

	_, err = queued.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = inFlight.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Enqueue("/movie/3", nil)
	assert.ErrorIs(t, err, ErrClosed)

	s.Close()
}

func TestConcurrentCallersEachGetTheirOwnOutcome(t *testing.T) {
	fetcher := newEchoFetcher()
	fetcher.handle("/fail", func(context.Context) (json.RawMessage, error) {
		return nil, errors.New("boom")
	})
	s := newTestScheduler(t, fetcher, Config{MaxRequests: 50, Window: 100 * time.Millisecond})

	const callers = 100
	var failures atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			endpoint := path(i)
			if i%10 == 0 {
				endpoint = "/fail"
			}
			payload, err := s.Do(context.Background(), endpoint, nil)
			if err != nil {
				failures.Add(1)
				assert.Equal(t, "/fail", endpoint)
				return
			}
			var body map[string]string
			assert.NoError(t, json.Unmarshal(payload, &body))
			assert.Equal(t, endpoint, body["endpoint"])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(callers/10), failures.Load())
	stats := s.Stats()
	assert.Equal(t, uint64(callers), stats.Enqueued)
	assert.Equal(t, uint64(callers), stats.Dispatched)
	assert.Zero(t, stats.Queued)
}

func TestStatsStateMarshalsAsText(t *testing.T) {
	data, err := json.Marshal(Stats{State: Running})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"running"`)
}
