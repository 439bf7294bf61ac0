package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SchedulerParams groups Scheduler constructor dependencies.
type SchedulerParams struct {
	Store    *Store
	Keys     []ResourceKey
	Interval time.Duration
	Metrics  *MetricsService
	Logger   *zap.Logger
}

// Scheduler keeps registered resources fresh without a push channel: an
// immediate cycle on start, then a fixed period until Stop. A failed cycle
// never cancels the schedule; the next tick still fires. The scheduler skips
// a tick while its own previous cycle is outstanding, but a manual
// Store.Refresh may run concurrently; whichever settles last wins.
type Scheduler struct {
	store    *Store
	keys     []ResourceKey
	interval time.Duration
	metrics  *MetricsService
	logger   *zap.Logger

	mu          sync.Mutex
	started     bool
	outstanding bool
	ctx         context.Context
	cancel      context.CancelFunc
	fetchCtx    context.Context
	wg          sync.WaitGroup
}

// NewScheduler constructs a Scheduler.
func NewScheduler(params SchedulerParams) *Scheduler {
	interval := params.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		store:    params.Store,
		keys:     params.Keys,
		interval: interval,
		metrics:  params.Metrics,
		logger:   logger,
	}
}

// Start begins the refresh loop. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.fetchCtx = ctx
	s.started = true
	s.wg.Add(1)
	go s.run()
	s.logger.Info("sync scheduler started",
		zap.Duration("interval", s.interval),
		zap.Int("resources", len(s.keys)),
	)
}

// Stop cancels the pending timer deterministically and waits for the loop to
// exit. In-flight requests are not forcibly cancelled; their completions are
// discarded by the store's teardown guard once it closes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("sync scheduler stopped")
}

// Refreshing reports whether a scheduler-initiated cycle is outstanding.
func (s *Scheduler) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstanding
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.launchCycle()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.launchCycle()
		}
	}
}

// launchCycle starts one fetch-and-project cycle unless the previous
// scheduler cycle has not settled yet.
func (s *Scheduler) launchCycle() {
	s.mu.Lock()
	if s.outstanding {
		s.mu.Unlock()
		s.metrics.RecordSkip()
		s.logger.Debug("cycle still outstanding, skipping tick")
		return
	}
	s.outstanding = true
	s.mu.Unlock()

	// The cycle runs against the parent context on purpose: Stop cancels
	// the timer, not an in-flight request. A completion landing after
	// teardown is discarded by the store's guard.
	go func() {
		defer func() {
			s.mu.Lock()
			s.outstanding = false
			s.mu.Unlock()
		}()
		for _, key := range s.keys {
			// Outcome bookkeeping happens in the store; a failure here
			// must not stop the remaining resources or the schedule.
			_ = s.store.Refresh(s.fetchCtx, key)
		}
	}()
}
