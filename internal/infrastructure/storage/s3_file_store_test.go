package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/earthcare/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewS3FileStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: "storage configuration is required",
		},
		{
			name:    "missing bucket",
			cfg:     &config.StorageConfig{AccessKeyID: "key", SecretAccessKey: "secret"},
			wantErr: "storage bucket is required",
		},
		{
			name:    "missing access key",
			cfg:     &config.StorageConfig{Bucket: "imports", SecretAccessKey: "secret"},
			wantErr: "storage access key is required",
		},
		{
			name:    "missing secret key",
			cfg:     &config.StorageConfig{Bucket: "imports", AccessKeyID: "key"},
			wantErr: "storage secret key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3FileStore(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		store, err := NewS3FileStore(&config.StorageConfig{
			Bucket:          "imports",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			Endpoint:        "minio.local:9000",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "imports", store.GetBucket())
	})
}

// fakeS3 serves the path-style PUT/GET/DELETE object calls the store makes
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3Store(t *testing.T) (*S3FileStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string][]byte)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3FileStore(&config.StorageConfig{
		Bucket:          "imports",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Endpoint:        server.URL,
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store, fake
}

func TestS3FileStore_PutGet(t *testing.T) {
	store, fake := newFakeS3Store(t)
	ctx := context.Background()
	data := []byte("name,website\nAcme,https://acme.test\n")

	require.NoError(t, store.Put(ctx, "imports/u/job.csv", data, "text/csv"))
	assert.Equal(t, data, fake.objects["imports/imports/u/job.csv"])

	got, err := store.Get(ctx, "imports/u/job.csv")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, store.Delete(ctx, "imports/u/job.csv"))
	_, err = store.Get(ctx, "imports/u/job.csv")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestS3FileStore_EmptyKey(t *testing.T) {
	store, _ := newFakeS3Store(t)
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, "", []byte("x"), "text/csv"))
	_, err := store.Get(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}
