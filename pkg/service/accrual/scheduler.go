package accrual

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yieldvault/ledger/pkg/ledger"
	"github.com/yieldvault/ledger/pkg/metrics"
)

// Ticker advances contracts to a point in time.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (TickResult, error)
}

// Locker is a leader lease held for the duration of one tick.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Scheduler runs a Ticker every interval.
type Scheduler struct {
	cron     *cron.Cron
	ticker   Ticker
	lock     Locker
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler validates interval and prepares the cron runner. timeout
// bounds a single tick and should not exceed the lease TTL.
func NewScheduler(ticker Ticker, lock Locker, interval, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if _, err := ledger.TicksPerDay(interval); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = interval
	}
	logger = logger.With("component", "accrual_scheduler")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	))
	return &Scheduler{
		cron:     c,
		ticker:   ticker,
		lock:     lock,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the accrual job and starts the cron runner.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("schedule accrual: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Accrual scheduled", "schedule", spec)
	return nil
}

// Stop halts the runner. The returned context is done once a running tick
// has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce performs a single tick if the lease can be taken.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ok, err := s.lock.TryAcquire(ctx)
	if err != nil {
		metrics.AccrualTicks.WithLabelValues("error").Inc()
		s.logger.Error("Accrual lease unavailable", "error", err)
		return
	}
	if !ok {
		metrics.AccrualTicks.WithLabelValues("skipped").Inc()
		s.logger.Debug("Accrual lease held elsewhere")
		return
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Accrual lease release failed", "error", err)
		}
	}()

	res, err := s.ticker.Tick(ctx, s.now().UTC())
	if err != nil {
		metrics.AccrualTicks.WithLabelValues("error").Inc()
		s.logger.Error("Accrual tick failed", "error", err, "failed", res.Failed)
		return
	}
	metrics.AccrualTicks.WithLabelValues("ok").Inc()
	if res.Accrued > 0 || res.Matured > 0 {
		s.logger.Debug("Accrual tick",
			"contracts", res.Contracts, "accrued", res.Accrued, "matured", res.Matured, "profit", res.Profit)
	}
}
