package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrSchedulerNotRunning = errors.New("recovery scheduler is not running")
	ErrInvalidConfig       = errors.New("invalid recovery scheduler configuration")
)

// Recoverer re-triggers stranded import jobs and fails jobs whose lease expired
type Recoverer interface {
	RecoverPending(ctx context.Context) (int, error)
}

// RecoverySchedulerConfig holds configuration for the import recovery scheduler
type RecoverySchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is the time between two recovery sweeps
	Interval time.Duration

	// Timeout is the maximum time for one sweep
	Timeout time.Duration
}

// DefaultRecoverySchedulerConfig returns default configuration
func DefaultRecoverySchedulerConfig() RecoverySchedulerConfig {
	return RecoverySchedulerConfig{
		Enabled:  true,
		Interval: time.Minute,
		Timeout:  30 * time.Second,
	}
}

// RecoveryScheduler sweeps for stranded import jobs at a fixed interval.
// Startup recovery only sees leases that expired before the process started;
// the sweep catches workers that die while this one keeps running.
type RecoveryScheduler struct {
	recoverer Recoverer
	logger    *zap.Logger
	config    RecoverySchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt time.Time
	lastErr   error
}

// NewRecoveryScheduler creates a new recovery scheduler
func NewRecoveryScheduler(recoverer Recoverer, logger *zap.Logger, config RecoverySchedulerConfig) (*RecoveryScheduler, error) {
	if recoverer == nil {
		return nil, fmt.Errorf("%w: recoverer is required", ErrInvalidConfig)
	}
	if config.Enabled && config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, config.Interval)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRecoverySchedulerConfig().Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryScheduler{
		recoverer: recoverer,
		logger:    logger,
		config:    config,
	}, nil
}

// Start starts the sweep loop
func (s *RecoveryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Import recovery scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx)

	s.logger.Info("Import recovery scheduler started",
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep
func (s *RecoveryScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Import recovery scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Import recovery scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *RecoveryScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Import recovery loop stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RecoveryScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	startTime := time.Now()
	retriggered, err := s.recoverer.RecoverPending(sweepCtx)
	duration := time.Since(startTime)

	s.mu.Lock()
	s.lastRunAt = startTime
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Import recovery sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	if retriggered > 0 {
		s.logger.Info("Import recovery sweep re-triggered jobs",
			zap.Duration("duration", duration),
			zap.Int("retriggered", retriggered),
		)
	}
}

// TriggerImmediate runs one sweep now, outside the interval
func (s *RecoveryScheduler) TriggerImmediate(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.sweep(ctx)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *RecoveryScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// LastRun returns when the last sweep started and how it ended
func (s *RecoveryScheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt, s.lastErr
}
