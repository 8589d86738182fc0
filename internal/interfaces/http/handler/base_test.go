package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/earthcare/backend/internal/infrastructure/auth"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/earthcare/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCallerFrom(t *testing.T) {
	t.Run("from jwt claims", func(t *testing.T) {
		c, _ := newTestContext()
		userID, workspaceID := uuid.New(), uuid.New()
		middleware.SetJWTClaims(c, &auth.Claims{UserID: userID.String(), TenantID: workspaceID.String()})

		who, err := callerFrom(c)
		require.NoError(t, err)
		assert.Equal(t, userID, who.UserID)
		assert.Equal(t, workspaceID, who.WorkspaceID)
	})

	t.Run("headers are never trusted", func(t *testing.T) {
		c, _ := newTestContext()
		c.Request.Header.Set("X-User-ID", uuid.NewString())
		c.Request.Header.Set("X-Tenant-ID", uuid.NewString())

		_, err := callerFrom(c)
		assert.ErrorIs(t, err, errNoClaims)
	})

	t.Run("malformed ids", func(t *testing.T) {
		c, _ := newTestContext()
		middleware.SetJWTClaims(c, &auth.Claims{UserID: "not-a-uuid", TenantID: uuid.NewString()})
		_, err := callerFrom(c)
		assert.ErrorContains(t, err, "user_id")

		middleware.SetJWTClaims(c, &auth.Claims{UserID: uuid.NewString(), TenantID: "ws"})
		_, err = callerFrom(c)
		assert.ErrorContains(t, err, "tenant_id")
	})
}

func TestBaseHandlerSuccessResponses(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name   string
		send   func(*gin.Context)
		status int
	}{
		{"success", func(c *gin.Context) { h.Success(c, gin.H{"id": "1"}) }, http.StatusOK},
		{"created", func(c *gin.Context) { h.Created(c, gin.H{"id": "1"}) }, http.StatusCreated},
		{"accepted", func(c *gin.Context) { h.Accepted(c, gin.H{"id": "1"}) }, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			tt.send(c)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.True(t, resp.Success)
			assert.Nil(t, resp.Error)
		})
	}
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"a", "b"}, 42, 2, 10)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.PageSize)
	assert.Equal(t, 5, resp.Meta.TotalPages)
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name   string
		send   func(*gin.Context)
		status int
		code   string
	}{
		{"bad request", func(c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"unauthorized", func(c *gin.Context) { h.Unauthorized(c, "who") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"internal", func(c *gin.Context) { h.InternalError(c) }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set(middleware.RequestIDKey, "req-123")
			tt.send(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-123", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"wrapped domain error", fmt.Errorf("configure: %w", shared.ErrInvalidState), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"file too large", shared.NewDomainError(csvimport.ErrCodeImportFileTooLarge, "too big"), http.StatusRequestEntityTooLarge, csvimport.ErrCodeImportFileTooLarge},
		{"invalid file type", shared.NewDomainError(csvimport.ErrCodeImportInvalidFileType, "no"), http.StatusUnsupportedMediaType, csvimport.ErrCodeImportInvalidFileType},
		{"empty file", shared.NewDomainError(csvimport.ErrCodeImportEmptyFile, "empty"), http.StatusBadRequest, csvimport.ErrCodeImportEmptyFile},
		{"aggregate invariant", shared.NewDomainError("INVALID_MAPPING", "Column mapping cannot be empty"), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"unmapped domain code", shared.NewDomainError("LEDGER_CORRUPT", "boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}
}

func TestBaseHandlerHandleError_HidesInternalDetails(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, fmt.Errorf("insert row {\"email\":\"jane@example.org\"}: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	assert.NotContains(t, w.Body.String(), "jane@example.org")
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
