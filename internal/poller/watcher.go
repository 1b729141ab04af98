// Package poller reconciles notification-based signals into a stable
// observable list. Two symmetric instances share the design: the applicant
// side watches credential grants and rejections, the admin side watches
// incoming registration applications.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vouch/internal/platform/metrics"
)

// DefaultFailureThreshold is the number of consecutive failed poll cycles
// after which the watcher stops and surfaces an error. Fail-stop, not
// fail-forever-silent: resuming requires an explicit Retry.
const DefaultFailureThreshold = 5

// Fetch produces the current item list. It runs at most once at a time per
// watcher; the sequential tick loop is the reentrancy guard, so a slow
// fetch delays later ticks instead of overlapping them.
type Fetch[T any] func(ctx context.Context) ([]T, error)

// Watcher polls a Fetch on a fixed interval and publishes snapshots.
type Watcher[T any] struct {
	name      string
	interval  time.Duration
	threshold int
	fetch     Fetch[T]
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	snapshot []T
	failures int
	err      error
	running  bool
	cancel   context.CancelFunc
	retryCh  chan struct{}
	doneCh   chan struct{}
}

// Option configures a Watcher.
type Option[T any] func(*Watcher[T])

func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(w *Watcher[T]) { w.logger = logger }
}

func WithMetrics[T any](m *metrics.Metrics) Option[T] {
	return func(w *Watcher[T]) { w.metrics = m }
}

// WithFailureThreshold overrides the fail-stop threshold.
func WithFailureThreshold[T any](n int) Option[T] {
	return func(w *Watcher[T]) { w.threshold = n }
}

// New builds a watcher. It does not poll until Start.
func New[T any](name string, interval time.Duration, fetch Fetch[T], opts ...Option[T]) *Watcher[T] {
	w := &Watcher[T]{
		name:      name,
		interval:  interval,
		threshold: DefaultFailureThreshold,
		fetch:     fetch,
		logger:    slog.Default(),
		retryCh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the poll loop: one immediate cycle, then one per interval.
// Calling Start on a running watcher is a no-op.
func (w *Watcher[T]) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	ctx, w.cancel = context.WithCancel(ctx)
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop halts polling and releases the timer. Safe to call twice; blocks
// until the loop has exited so no tick fires after Stop returns.
func (w *Watcher[T]) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel, done := w.cancel, w.doneCh
	w.mu.Unlock()

	cancel()
	<-done
}

// Items returns the latest published snapshot.
func (w *Watcher[T]) Items() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]T, len(w.snapshot))
	copy(out, w.snapshot)
	return out
}

// Err reports the fail-stop error, or nil while polling is healthy.
func (w *Watcher[T]) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Retry clears a fail-stop and resumes polling immediately.
func (w *Watcher[T]) Retry() {
	w.mu.Lock()
	w.err = nil
	w.failures = 0
	w.mu.Unlock()
	select {
	case w.retryCh <- struct{}{}:
	default:
	}
}

func (w *Watcher[T]) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.halted() {
				continue
			}
			w.cycle(ctx)
		case <-w.retryCh:
			w.cycle(ctx)
		}
	}
}

func (w *Watcher[T]) halted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err != nil
}

func (w *Watcher[T]) cycle(ctx context.Context) {
	if w.metrics != nil {
		w.metrics.PollCycles.WithLabelValues(w.name).Inc()
	}
	items, err := w.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if w.metrics != nil {
			w.metrics.PollFailures.WithLabelValues(w.name).Inc()
		}
		w.mu.Lock()
		w.failures++
		failures := w.failures
		if failures >= w.threshold {
			w.err = err
		}
		w.mu.Unlock()

		if failures >= w.threshold {
			w.logger.Error("watcher halted after consecutive poll failures",
				"watcher", w.name, "failures", failures, "error", err)
		} else {
			w.logger.Warn("poll cycle failed",
				"watcher", w.name, "failures", failures, "error", err)
		}
		return
	}

	w.mu.Lock()
	w.failures = 0
	w.snapshot = items
	w.mu.Unlock()
}
