package storage

import (
	"context"
	"testing"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileStore(t *testing.T) {
	store := NewMemoryFileStore()
	ctx := context.Background()

	data := []byte("a,b\n1,2\n")
	require.NoError(t, store.Put(ctx, "k", data, "text/csv"))

	// Mutating the caller's slice does not change the stored copy
	data[0] = 'z'
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("a,b\n1,2\n"), got)

	store.Delete("k")
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Error(t, store.Put(ctx, "", []byte("x"), "text/csv"))
}
