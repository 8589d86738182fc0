package bulk

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ImportJobFilter defines the filters for listing a user's import jobs
type ImportJobFilter struct {
	EntityType *EntityKind
	Status     *JobStatus
}

// ImportJobListResult represents a paginated list of import jobs
type ImportJobListResult struct {
	Items      []*ImportJob
	TotalCount int64
	Page       int
	PageSize   int
}

// ImportJobRepository persists import jobs
type ImportJobRepository interface {
	// Save inserts or fully updates a job
	Save(ctx context.Context, job *ImportJob) error

	// SaveIfStatus fully updates a job only while its stored status equals expected
	SaveIfStatus(ctx context.Context, job *ImportJob, expected JobStatus) (bool, error)

	// FindByID finds a job by ID regardless of owner
	FindByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)

	// FindByIDForOwner finds a job created by the given user
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*ImportJob, error)

	// FindAllForOwner returns a user's jobs, newest first
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter ImportJobFilter, page, pageSize int) (*ImportJobListResult, error)

	// FindByStatus finds all jobs in a status (used for startup recovery)
	FindByStatus(ctx context.Context, status JobStatus) ([]*ImportJob, error)

	// FindExpiredLeases finds processing jobs whose lease ended before now
	FindExpiredLeases(ctx context.Context, now time.Time) ([]*ImportJob, error)

	// ClaimForProcessing atomically moves a job from mapping to processing
	ClaimForProcessing(ctx context.Context, id uuid.UUID, leaseOwner string, leaseUntil time.Time) (bool, error)

	// UpdateProgress persists row counters and extends the processing lease
	UpdateProgress(ctx context.Context, id uuid.UUID, processed, successful, failed int, leaseUntil time.Time) error

	// TransitionIf moves a job to status "to" only while its stored status is one of "from"
	TransitionIf(ctx context.Context, id uuid.UUID, from []JobStatus, to JobStatus, summary string, at time.Time) (bool, error)

	// GetStatus reads only the stored status of a job
	GetStatus(ctx context.Context, id uuid.UUID) (JobStatus, error)
}

// ImportRowErrorRepository persists per-row failures
type ImportRowErrorRepository interface {
	// Create stores one row error
	Create(ctx context.Context, rowErr *ImportRowError) error

	// FindByJob returns a job's row errors ordered by row number
	FindByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]*ImportRowError, error)

	// CountByJob counts a job's row errors
	CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error)
}

// RawFileStore retains the uploaded file bytes for the lifetime of a job
type RawFileStore interface {
	// Put stores data under key, replacing any previous content
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the bytes stored under key, or shared.ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
}

// JobLock guards a job against being processed by two workers at once
type JobLock interface {
	// Acquire tries to take the lock for jobID; it returns false if another holder has it
	Acquire(ctx context.Context, jobID uuid.UUID, ttl time.Duration) (bool, error)

	// Release gives the lock back if this holder still owns it
	Release(ctx context.Context, jobID uuid.UUID) error
}
