// Package preview debounces interactive preview renders.
//
// Slider drags produce a burst of parameter changes. A Scheduler coalesces
// them: each Schedule call restarts a quiet-period timer, and only the
// parameters of the last call in a burst are rendered. When a render starts,
// any older render still in flight has its context cancelled, and an older
// result that completes after a newer render started is discarded, so the
// latest request's result is what is eventually shown.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ironsheep/photo-tools-mcp/internal/imaging"
)

// RenderFunc produces a preview for one parameter set. It should return early
// once ctx is cancelled.
type RenderFunc func(ctx context.Context, p imaging.Parameters) (*imaging.Blob, error)

// Result is one completed render.
type Result struct {
	Generation uint64
	Params     imaging.Parameters
	Blob       *imaging.Blob
	Err        error
	RenderedAt time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for superseded and failed renders.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithOnResult registers a callback invoked for every published result,
// including failures. It runs outside the scheduler lock.
func WithOnResult(fn func(Result)) Option {
	return func(s *Scheduler) { s.onResult = fn }
}

// Scheduler runs at most one live preview render per burst of updates.
// It is safe for concurrent use.
type Scheduler struct {
	delay    time.Duration
	render   RenderFunc
	logger   *slog.Logger
	onResult func(Result)

	mu        sync.Mutex
	timer     *time.Timer
	scheduled uint64 // generation of the latest Schedule call
	started   uint64 // generation of the latest render that began
	published uint64 // generation of the latest result, good or failed
	cancel    context.CancelFunc
	latest    *Result
	lastErr   error
	runs      int
	stopped   bool
	inflight  sync.WaitGroup
}

// New creates a Scheduler that waits delay after the last Schedule call
// before invoking render.
func New(delay time.Duration, render RenderFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		delay:  delay,
		render: render,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues a render of p, replacing any render still waiting for the
// quiet period. p is captured by value. It returns the generation assigned to
// the request, or 0 after Stop.
func (s *Scheduler) Schedule(p imaging.Parameters) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0
	}

	s.scheduled++
	gen := s.scheduled
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, p) })
	return gen
}

func (s *Scheduler) fire(gen uint64, p imaging.Parameters) {
	s.mu.Lock()
	// A newer Schedule call may have raced with this timer.
	if s.stopped || gen != s.scheduled {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = gen
	s.runs++
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()

	blob, err := s.render(ctx, p)
	cancel()
	s.publish(gen, p, blob, err)
}

func (s *Scheduler) publish(gen uint64, p imaging.Parameters, blob *imaging.Blob, err error) {
	s.mu.Lock()
	if s.stopped || gen < s.started {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded preview", "generation", gen)
		return
	}

	s.published = gen
	res := Result{
		Generation: gen,
		Params:     p,
		Blob:       blob,
		Err:        err,
		RenderedAt: time.Now(),
	}
	if err != nil {
		// The last good preview stays visible.
		s.lastErr = err
	} else {
		s.latest = &res
		s.lastErr = nil
	}
	cb := s.onResult
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("preview render failed", "generation", gen, "error", err)
	}
	if cb != nil {
		cb(res)
	}
}

// Latest returns the most recent successful render.
func (s *Scheduler) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

// LastError returns the error of the most recent published render, or nil
// if it succeeded.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Generation returns the generation of the latest Schedule call.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// Published returns the generation of the most recent published render,
// successful or not. It equals Generation once the latest request has settled.
func (s *Scheduler) Published() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}

// Runs reports how many renders have been started.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Stop cancels any pending or in-flight render and waits for it to return.
// Schedule calls after Stop are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.inflight.Wait()
}
