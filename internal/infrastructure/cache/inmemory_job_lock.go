package cache

import (
	"context"
	"sync"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/google/uuid"
)

// InMemoryJobLock implements bulk.JobLock using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryJobLock struct {
	mu      sync.Mutex
	entries map[uuid.UUID]time.Time
}

// NewInMemoryJobLock creates a new in-memory job lock
func NewInMemoryJobLock() *InMemoryJobLock {
	return &InMemoryJobLock{
		entries: make(map[uuid.UUID]time.Time),
	}
}

// Acquire takes the lock for jobID unless an unexpired holder already has it
func (l *InMemoryJobLock) Acquire(ctx context.Context, jobID uuid.UUID, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiresAt, held := l.entries[jobID]; held && time.Now().Before(expiresAt) {
		return false, nil
	}

	l.entries[jobID] = time.Now().Add(ttl)
	return true, nil
}

// Release gives the lock back
func (l *InMemoryJobLock) Release(ctx context.Context, jobID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, jobID)
	return nil
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryJobLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Ensure InMemoryJobLock implements JobLock
var _ bulk.JobLock = (*InMemoryJobLock)(nil)
