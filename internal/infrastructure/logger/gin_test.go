package logger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newLoggedRouter(t *testing.T) (*gin.Engine, func() []map[string]any, func() []zapcore.Level) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base, logs := observed(zapcore.DebugLevel)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	router.Use(Recovery(base), AccessLog(base))

	fields := func() []map[string]any {
		out := make([]map[string]any, 0, logs.Len())
		for _, e := range logs.All() {
			out = append(out, e.ContextMap())
		}
		return out
	}
	levels := func() []zapcore.Level {
		out := make([]zapcore.Level, 0, logs.Len())
		for _, e := range logs.All() {
			out = append(out, e.Level)
		}
		return out
	}
	return router, fields, levels
}

func TestAccessLog(t *testing.T) {
	router, fields, levels := newLoggedRouter(t)
	router.GET("/api/v1/imports/:id", func(c *gin.Context) {
		FromGin(c).Debug("Loading import job")
		// Simulates auth middleware enriching the request context
		c.Request = c.Request.WithContext(WithWorkspaceID(c.Request.Context(), "ws-1"))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/imports/123", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := fields()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0]["request_id"])
	assert.Equal(t, "/api/v1/imports/123", entries[0]["path"])

	access := entries[1]
	assert.Equal(t, int64(http.StatusOK), access["status"])
	assert.Equal(t, "GET", access["method"])
	assert.Equal(t, "/api/v1/imports/:id", access["route"])
	assert.Equal(t, "req-42", access["request_id"])
	assert.Equal(t, "ws-1", access["workspace_id"])
	assert.Equal(t, zapcore.InfoLevel, levels()[1])
}

func TestAccessLog_LevelByStatus(t *testing.T) {
	router, _, levels := newLoggedRouter(t)
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))

	assert.Equal(t, []zapcore.Level{zapcore.WarnLevel, zapcore.ErrorLevel}, levels())
}

func TestRecovery(t *testing.T) {
	router, fields, _ := newLoggedRouter(t)
	router.GET("/panic", func(c *gin.Context) {
		panic("row loop exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "ERR_INTERNAL", body.Error.Code)
	assert.Equal(t, "req-42", body.Error.RequestID)

	var sawPanic bool
	for _, f := range fields() {
		if f["panic"] == "row loop exploded" {
			sawPanic = true
		}
	}
	assert.True(t, sawPanic)
}

func TestFromGin_WithoutAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.NotNil(t, FromGin(c))
}
