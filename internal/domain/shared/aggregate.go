package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries identity, timestamps and the version used for
// optimistic locking.
type BaseAggregateRoot struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// NewBaseAggregateRoot returns a fresh aggregate at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch records a state change.
func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
	a.Version++
}

// WorkspaceAggregateRoot is an aggregate created by a user inside a workspace.
// Reads are always scoped by WorkspaceID.
type WorkspaceAggregateRoot struct {
	BaseAggregateRoot
	WorkspaceID uuid.UUID
	CreatedBy   uuid.UUID
}

func NewWorkspaceAggregateRoot(workspaceID, createdBy uuid.UUID) WorkspaceAggregateRoot {
	return WorkspaceAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		WorkspaceID:       workspaceID,
		CreatedBy:         createdBy,
	}
}

func (w *WorkspaceAggregateRoot) IsOwnedBy(userID uuid.UUID) bool {
	return w.CreatedBy == userID
}
