package persistence

import (
	"context"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportRowErrorRepository implements bulk.ImportRowErrorRepository using GORM
type GormImportRowErrorRepository struct {
	db *gorm.DB
}

// NewGormImportRowErrorRepository creates a new GormImportRowErrorRepository
func NewGormImportRowErrorRepository(db *gorm.DB) *GormImportRowErrorRepository {
	return &GormImportRowErrorRepository{db: db}
}

// Create stores a row error
func (r *GormImportRowErrorRepository) Create(ctx context.Context, rowErr *bulk.ImportRowError) error {
	model := models.ImportRowErrorModelFromDomain(rowErr)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByJob returns a job's row errors in row order; a non-positive limit returns all of them
func (r *GormImportRowErrorRepository) FindByJob(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]*bulk.ImportRowError, error) {
	query := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("row_number ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var errorModels []models.ImportRowErrorModel
	if err := query.Find(&errorModels).Error; err != nil {
		return nil, err
	}

	rowErrors := make([]*bulk.ImportRowError, len(errorModels))
	for i := range errorModels {
		rowErrors[i] = errorModels[i].ToDomain()
	}
	return rowErrors, nil
}

// CountByJob counts a job's row errors
func (r *GormImportRowErrorRepository) CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ImportRowErrorModel{}).
		Where("job_id = ?", jobID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Compile-time interface compliance check
var _ bulk.ImportRowErrorRepository = (*GormImportRowErrorRepository)(nil)
