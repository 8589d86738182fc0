package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/earthcare/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DatabaseFileStore keeps uploaded import files in the import_files table.
// It is the default store when no object storage bucket is configured.
type DatabaseFileStore struct {
	db *gorm.DB
}

// NewDatabaseFileStore creates a new DatabaseFileStore
func NewDatabaseFileStore(db *gorm.DB) *DatabaseFileStore {
	return &DatabaseFileStore{db: db}
}

// Put stores data under key, replacing any previous content
func (s *DatabaseFileStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	model := &models.ImportFileModel{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		CreatedAt:   time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "object_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_type", "size", "data", "created_at"}),
		}).
		Create(model).Error
}

// Get returns the bytes stored under key
func (s *DatabaseFileStore) Get(ctx context.Context, key string) ([]byte, error) {
	var model models.ImportFileModel
	if err := s.db.WithContext(ctx).
		Where("object_key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.Data, nil
}

// Compile-time interface compliance check
var _ bulk.RawFileStore = (*DatabaseFileStore)(nil)
