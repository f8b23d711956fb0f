package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/stayloop/bookingsim/pkg/models"
	"github.com/stayloop/bookingsim/pkg/redis"
	"github.com/stayloop/bookingsim/pkg/tracing"
)

var (
	// ErrSchedulerAlreadyRunning is returned when trying to start an already running scheduler
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

const (
	// DefaultTickInterval is the default cadence between generation cycles
	DefaultTickInterval = time.Minute

	// DefaultLockTTL is the default TTL for the cycle lock
	DefaultLockTTL = 90 * time.Second

	// cycleLockKey guards against overlapping cycles from multiple instances
	cycleLockKey = "cycle"
)

// CycleRunner executes one full generation cycle anchored at now.
type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) ([]models.Event, error)
}

// Config holds configuration for the scheduler
type Config struct {
	// TickInterval is the cadence between generation cycles
	TickInterval time.Duration

	// LockTTL is how long the cycle lock is held at most
	LockTTL time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		TickInterval: DefaultTickInterval,
		LockTTL:      DefaultLockTTL,
	}
}

// Scheduler fires a generation cycle on a fixed cadence. A tick that
// arrives late (more than half an interval behind schedule) is logged but
// still runs; a tick that cannot take the cycle lock is skipped.
type Scheduler struct {
	runner CycleRunner
	locker *redis.Locker
	config Config
	logger ectologger.Logger

	// Coordination
	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler. locker may be nil, in which case
// ticks run unguarded (single-instance deployments).
func NewScheduler(runner CycleRunner, locker *redis.Locker, config Config, logger ectologger.Logger) *Scheduler {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}

	return &Scheduler{
		runner:   runner,
		locker:   locker,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	s.logger.WithContext(ctx).Infof("Starting scheduler: tick_interval=%s", s.config.TickInterval)

	go s.tickLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Stopping scheduler...")

	close(s.stopCh)

	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Scheduler shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// tickLoop fires cycles at the configured cadence
func (s *Scheduler) tickLoop(ctx context.Context) {
	defer close(s.stoppedC)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	// Run immediately on start
	expected := time.Now()
	s.runTick(ctx, time.Now(), false)

	for {
		select {
		case <-s.stopCh:
			s.logger.WithContext(ctx).Debug("Scheduler tick loop stopping")
			return
		case now := <-ticker.C:
			expected = expected.Add(s.config.TickInterval)
			pastDue := now.Sub(expected) > s.config.TickInterval/2
			s.runTick(ctx, now, pastDue)
		}
	}
}

// runTick runs a single generation cycle under the cycle lock
func (s *Scheduler) runTick(ctx context.Context, now time.Time, pastDue bool) {
	ctx, span := tracing.StartSpan(ctx, "Scheduler.runTick")
	defer span.End()

	if pastDue {
		s.logger.WithContext(ctx).Warn("Tick is past due")
	}

	run := func() error {
		_, err := s.runner.RunCycle(ctx, now)
		return err
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, cycleLockKey, s.config.LockTTL, run)
		if errors.Is(err, redis.ErrLockNotAcquired) {
			s.logger.WithContext(ctx).Warn("Previous cycle still holds the lock, skipping tick")
			return
		}
	} else {
		err = run()
	}

	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Generation cycle failed")
	}
}
