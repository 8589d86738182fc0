package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/earthcare/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportJobRepository implements bulk.ImportJobRepository using GORM
type GormImportJobRepository struct {
	db *gorm.DB
}

// NewGormImportJobRepository creates a new GormImportJobRepository
func NewGormImportJobRepository(db *gorm.DB) *GormImportJobRepository {
	return &GormImportJobRepository{db: db}
}

// Save saves an import job (create or update)
func (r *GormImportJobRepository) Save(ctx context.Context, job *bulk.ImportJob) error {
	model := models.ImportJobModelFromDomain(job)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveIfStatus writes every column of the job, guarded by its stored status
func (r *GormImportJobRepository) SaveIfStatus(ctx context.Context, job *bulk.ImportJob, expected bulk.JobStatus) (bool, error) {
	model := models.ImportJobModelFromDomain(job)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("status = ?", expected).
		Select("*").
		Updates(model)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByID finds an import job by ID
func (r *GormImportJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.ImportJob, error) {
	var model models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForOwner finds an import job by ID, visible only to the user who uploaded it
func (r *GormImportJobRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*bulk.ImportJob, error) {
	var model models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Where("created_by = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner returns a user's import jobs with pagination and filtering
func (r *GormImportJobRepository) FindAllForOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	filter bulk.ImportJobFilter,
	page, pageSize int,
) (*bulk.ImportJobListResult, error) {
	query := r.db.WithContext(ctx).Model(&models.ImportJobModel{}).
		Where("created_by = ?", ownerID)

	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var jobModels []models.ImportJobModel
	if err := query.Order("created_at DESC, id DESC").Find(&jobModels).Error; err != nil {
		return nil, err
	}

	return &bulk.ImportJobListResult{
		Items:      toImportJobs(jobModels),
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// FindByStatus finds all import jobs in a status, oldest first
func (r *GormImportJobRepository) FindByStatus(ctx context.Context, status bulk.JobStatus) ([]*bulk.ImportJob, error) {
	var jobModels []models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toImportJobs(jobModels), nil
}

// FindExpiredLeases finds processing jobs whose worker lease has run out
func (r *GormImportJobRepository) FindExpiredLeases(ctx context.Context, now time.Time) ([]*bulk.ImportJob, error) {
	var jobModels []models.ImportJobModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (lease_expires_at IS NULL OR lease_expires_at < ?)", bulk.JobStatusProcessing, now).
		Order("created_at ASC").
		Find(&jobModels).Error; err != nil {
		return nil, err
	}
	return toImportJobs(jobModels), nil
}

// ClaimForProcessing moves a job from mapping to processing in a single conditional update
func (r *GormImportJobRepository) ClaimForProcessing(
	ctx context.Context,
	id uuid.UUID,
	leaseOwner string,
	leaseUntil time.Time,
) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.ImportJobModel{}).
		Where("id = ? AND status = ?", id, bulk.JobStatusMapping).
		Updates(map[string]any{
			"status":           bulk.JobStatusProcessing,
			"lease_owner":      leaseOwner,
			"lease_expires_at": leaseUntil,
			"started_at":       now,
			"updated_at":       now,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateProgress writes the row counters and pushes the lease forward
func (r *GormImportJobRepository) UpdateProgress(
	ctx context.Context,
	id uuid.UUID,
	processed, successful, failed int,
	leaseUntil time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJobModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed_rows":   processed,
			"successful_rows":  successful,
			"failed_rows":      failed,
			"lease_expires_at": leaseUntil,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TransitionIf changes the status only while the stored status is one of from.
// An empty summary leaves the stored error summary untouched.
func (r *GormImportJobRepository) TransitionIf(
	ctx context.Context,
	id uuid.UUID,
	from []bulk.JobStatus,
	to bulk.JobStatus,
	summary string,
	at time.Time,
) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}

	updates := map[string]any{
		"status":     to,
		"updated_at": at,
		"version":    gorm.Expr("version + 1"),
	}
	if summary != "" {
		updates["error_summary"] = summary
	}
	if to.IsTerminal() {
		updates["completed_at"] = at
		updates["lease_owner"] = ""
		updates["lease_expires_at"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ImportJobModel{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetStatus reads the stored status of a job without loading the rest of it
func (r *GormImportJobRepository) GetStatus(ctx context.Context, id uuid.UUID) (bulk.JobStatus, error) {
	var statuses []string
	if err := r.db.WithContext(ctx).
		Model(&models.ImportJobModel{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("status", &statuses).Error; err != nil {
		return "", err
	}
	if len(statuses) == 0 {
		return "", shared.ErrNotFound
	}
	return bulk.JobStatus(statuses[0]), nil
}

func toImportJobs(jobModels []models.ImportJobModel) []*bulk.ImportJob {
	jobs := make([]*bulk.ImportJob, len(jobModels))
	for i := range jobModels {
		jobs[i] = jobModels[i].ToDomain()
	}
	return jobs
}

// Compile-time interface compliance check
var _ bulk.ImportJobRepository = (*GormImportJobRepository)(nil)
