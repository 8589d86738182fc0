package models

import (
	"time"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel holds the columns every aggregate table shares.
// Version backs the optimistic lock in conditional updates.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Version:   m.Version,
	}
}

// WorkspaceAggregateModel adds the owning workspace and creator.
type WorkspaceAggregateModel struct {
	AggregateModel
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (m *WorkspaceAggregateModel) FromDomainWorkspaceAggregateRoot(w shared.WorkspaceAggregateRoot) {
	m.FromDomainAggregateRoot(w.BaseAggregateRoot)
	m.WorkspaceID = w.WorkspaceID
	m.CreatedBy = w.CreatedBy
}

func (m *WorkspaceAggregateModel) ToWorkspaceAggregateRoot() shared.WorkspaceAggregateRoot {
	return shared.WorkspaceAggregateRoot{
		BaseAggregateRoot: m.ToAggregateRoot(),
		WorkspaceID:       m.WorkspaceID,
		CreatedBy:         m.CreatedBy,
	}
}
