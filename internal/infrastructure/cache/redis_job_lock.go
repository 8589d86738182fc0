package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultJobLockPrefix = "import:job-lock:"

// releaseScript deletes the key only if it still holds this owner's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisJobLock implements bulk.JobLock using Redis.
// This is suitable for distributed deployments where several instances
// may try to process the same job.
type RedisJobLock struct {
	client    *redis.Client
	keyPrefix string
	owner     string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisJobLock creates a new Redis-based job lock owned by owner
func NewRedisJobLock(cfg RedisConfig, owner string) (*RedisJobLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisJobLockWithClient(client, "", owner), nil
}

// NewRedisJobLockWithClient creates a lock with an existing Redis client.
// The owner token should be unique per process.
func NewRedisJobLockWithClient(client *redis.Client, keyPrefix, owner string) *RedisJobLock {
	if keyPrefix == "" {
		keyPrefix = defaultJobLockPrefix
	}
	if owner == "" {
		owner = uuid.NewString()
	}
	return &RedisJobLock{
		client:    client,
		keyPrefix: keyPrefix,
		owner:     owner,
	}
}

// Acquire takes the lock with SET NX and a TTL
func (l *RedisJobLock) Acquire(ctx context.Context, jobID uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(jobID), l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	return ok, nil
}

// Release deletes the lock if this owner still holds it
func (l *RedisJobLock) Release(ctx context.Context, jobID uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key(jobID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release job lock: %w", err)
	}
	return nil
}

// Owner returns the token this lock writes into Redis
func (l *RedisJobLock) Owner() string {
	return l.owner
}

// Close closes the Redis client
func (l *RedisJobLock) Close() error {
	return l.client.Close()
}

func (l *RedisJobLock) key(jobID uuid.UUID) string {
	return l.keyPrefix + jobID.String()
}

// Ensure RedisJobLock implements JobLock
var _ bulk.JobLock = (*RedisJobLock)(nil)
