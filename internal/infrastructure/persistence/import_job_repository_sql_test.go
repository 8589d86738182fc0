package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests pin the PostgreSQL statements behind the conditional job updates.

func TestImportJobRepository_ClaimForProcessing_SQL(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormImportJobRepository(db.DB)

	id := uuid.New()
	leaseUntil := time.Now().Add(time.Minute)

	mock.ExpectExec(`UPDATE "import_jobs" SET .*"lease_owner"=.*"status"=.*"version"=version \+ 1 WHERE id = \$6 AND status = \$7`).
		WithArgs(sqlmock.AnyArg(), "worker-a", sqlmock.AnyArg(), string(bulk.JobStatusProcessing), sqlmock.AnyArg(),
			id, string(bulk.JobStatusMapping)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimForProcessing(context.Background(), id, "worker-a", leaseUntil)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobRepository_TransitionIf_SQL(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormImportJobRepository(db.DB)

	id := uuid.New()

	mock.ExpectExec(`UPDATE "import_jobs" SET .*"completed_at"=.*"error_summary"=.* WHERE id = \$\d+ AND status IN \(\$\d+,\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.TransitionIf(context.Background(), id, bulk.NonTerminalStatuses,
		bulk.JobStatusFailed, "processing interrupted", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobRepository_UpdateProgress_SQL(t *testing.T) {
	db, mock := newMockDatabase(t)
	repo := NewGormImportJobRepository(db.DB)

	id := uuid.New()

	mock.ExpectExec(`UPDATE "import_jobs" SET "failed_rows"=\$1,"lease_expires_at"=\$2,"processed_rows"=\$3,"successful_rows"=\$4,"updated_at"=\$5 WHERE id = \$6`).
		WithArgs(2, sqlmock.AnyArg(), 10, 8, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgress(context.Background(), id, 10, 8, 2, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
