package shared

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestAggregateRoot_Touch(t *testing.T) {
	root := NewBaseAggregateRoot()
	assert.NotEqual(t, uuid.Nil, root.ID)
	assert.Equal(t, 1, root.Version)

	before := root.UpdatedAt
	time.Sleep(time.Millisecond)
	root.Touch()

	assert.Equal(t, 2, root.Version)
	assert.True(t, root.UpdatedAt.After(before))
	assert.Equal(t, root.CreatedAt, before)
}

func TestWorkspaceAggregateRoot(t *testing.T) {
	ws, owner := uuid.New(), uuid.New()
	root := NewWorkspaceAggregateRoot(ws, owner)

	assert.Equal(t, ws, root.WorkspaceID)
	assert.True(t, root.IsOwnedBy(owner))
	assert.False(t, root.IsOwnedBy(uuid.New()))
}

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("load job: %w", NewDomainError("NOT_FOUND", "import job not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "load job: import job not found", err.Error())
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{}.Normalize(100)
	assert.Equal(t, Filter{Page: 1, PageSize: 20}, f)
	assert.Zero(t, f.Offset())

	f = Filter{Page: 3, PageSize: 500}.Normalize(100)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, 200, f.Offset())
}
