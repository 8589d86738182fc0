package cache

import (
	"fmt"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// JobLockFactory creates job locks based on configuration
type JobLockFactory struct {
	redisConfig           config.RedisConfig
	owner                 string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// JobLockFactoryOption is a functional option for configuring the factory
type JobLockFactoryOption func(*JobLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) JobLockFactoryOption {
	return func(f *JobLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory lock when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) JobLockFactoryOption {
	return func(f *JobLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewJobLockFactory creates a new factory; owner identifies this process in Redis
func NewJobLockFactory(cfg config.RedisConfig, owner string, opts ...JobLockFactoryOption) *JobLockFactory {
	f := &JobLockFactory{
		redisConfig:           cfg,
		owner:                 owner,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-based job lock
func (f *JobLockFactory) CreateRedisLock() (*RedisJobLock, error) {
	lock, err := NewRedisJobLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis job lock: %w", err)
	}
	return lock, nil
}

// CreateLock returns a Redis lock when Redis is configured and reachable.
// Without Redis it returns the in-memory lock, which only guards jobs inside this process.
func (f *JobLockFactory) CreateLock() (bulk.JobLock, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("Redis not configured, using in-memory job lock")
		return NewInMemoryJobLock(), nil
	}

	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("using Redis job lock", zap.String("owner", lock.Owner()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for job locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory job lock. "+
		"Two instances may process the same job concurrently.",
		zap.Error(err),
	)
	return NewInMemoryJobLock(), nil
}
