package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// CleanupErrorHandler receives failed sweeps.
type CleanupErrorHandler func(err *CleanupError)

// CleanupScheduler periodically calls DeleteExpired on a Sweeper. A failed
// sweep is reported and the next one runs on schedule; reads never depend on
// sweeps having run.
type CleanupScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	name     string
	clock    clockwork.Clock
	logger   *slog.Logger
	onError  CleanupErrorHandler
	metrics  *Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SchedulerOption configures a CleanupScheduler.
type SchedulerOption func(*CleanupScheduler)

func WithSchedulerClock(clock clockwork.Clock) SchedulerOption {
	return func(s *CleanupScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *CleanupScheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerName labels logs, metrics and errors with the store name.
func WithSchedulerName(name string) SchedulerOption {
	return func(s *CleanupScheduler) {
		s.name = name
	}
}

// WithCleanupErrorHandler sets the callback for failed sweeps.
func WithCleanupErrorHandler(h CleanupErrorHandler) SchedulerOption {
	return func(s *CleanupScheduler) {
		s.onError = h
	}
}

func WithSchedulerMetrics(m *Metrics) SchedulerOption {
	return func(s *CleanupScheduler) {
		s.metrics = m
	}
}

// NewCleanupScheduler creates a scheduler sweeping every interval. A
// non-positive interval disables the background loop; RunOnce still works.
func NewCleanupScheduler(sweeper Sweeper, interval time.Duration, opts ...SchedulerOption) *CleanupScheduler {
	s := &CleanupScheduler{
		sweeper:  sweeper,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop. The first sweep runs immediately. Calling
// Start on a running scheduler does nothing.
func (s *CleanupScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Running reports whether the loop is active.
func (s *CleanupScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *CleanupScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.RunOnce(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Failures are reported to the error
// handler and returned as *CleanupError.
func (s *CleanupScheduler) RunOnce(ctx context.Context) (int64, error) {
	start := s.clock.Now()
	removed, err := s.sweeper.DeleteExpired(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return removed, nil
		}

		cerr := &CleanupError{Store: s.name, Err: err}
		s.metrics.observeSweep(s.name, 0, cerr)
		if s.onError != nil {
			s.onError(cerr)
		}
		s.logger.ErrorContext(ctx, "session cleanup failed",
			logger.Component("session_cleanup"),
			logger.Store(s.name),
			logger.Error(err),
		)
		return removed, cerr
	}

	s.metrics.observeSweep(s.name, removed, nil)
	if removed > 0 {
		s.logger.DebugContext(ctx, "expired sessions removed",
			logger.Component("session_cleanup"),
			logger.Store(s.name),
			logger.Removed(removed),
			logger.Duration(s.clock.Since(start)),
		)
	}
	return removed, nil
}
