package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earthcare/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2")).Register(
		NewDomainGroup("imports", "/imports").
			GET("", func(c *gin.Context) {}).
			POST("/:id/cancel", func(c *gin.Context) {}),
	)

	assert.Equal(t, []string{
		"GET /api/v2/imports",
		"POST /api/v2/imports/:id/cancel",
	}, r.Routes())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("imports", "/imports")
		assert.Equal(t, "imports", g.Name())
		assert.Equal(t, "/imports", g.Prefix())
	})

	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		for method, want := range map[string]int{http.MethodGet: http.StatusOK, http.MethodPost: http.StatusCreated} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/test/items", nil))
			assert.Equal(t, want, w.Code, method)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/items", nil))
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})
}

func TestNewImportRoutes(t *testing.T) {
	engine := gin.New()
	var guarded, uploadGuarded []string

	// The handler is never reached: the guard aborts after recording the route
	routes := NewImportRoutes(ImportRoutesConfig{
		Handler: handler.NewImportHandler(nil, 1024),
		Guards: []gin.HandlerFunc{func(c *gin.Context) {
			guarded = append(guarded, c.Request.Method+" "+c.FullPath())
			if c.FullPath() != "/api/v1/imports/upload" {
				c.AbortWithStatus(http.StatusTeapot)
			}
		}},
		UploadGuards: []gin.HandlerFunc{func(c *gin.Context) {
			uploadGuarded = append(uploadGuarded, c.FullPath())
			c.AbortWithStatus(http.StatusTeapot)
		}},
	})
	NewRouter(engine).Register(routes).Setup()

	tests := []struct {
		method string
		path   string
		route  string
	}{
		{http.MethodPost, "/api/v1/imports/upload", "/api/v1/imports/upload"},
		{http.MethodGet, "/api/v1/imports/templates", "/api/v1/imports/templates"},
		{http.MethodGet, "/api/v1/imports", "/api/v1/imports"},
		{http.MethodGet, "/api/v1/imports/abc", "/api/v1/imports/:id"},
		{http.MethodPost, "/api/v1/imports/abc/configure", "/api/v1/imports/:id/configure"},
		{http.MethodPost, "/api/v1/imports/abc/cancel", "/api/v1/imports/:id/cancel"},
		{http.MethodGet, "/api/v1/imports/abc/errors", "/api/v1/imports/:id/errors"},
		{http.MethodGet, "/api/v1/imports/abc/errors/export", "/api/v1/imports/:id/errors/export"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusTeapot, w.Code, "%s %s", tt.method, tt.path)
	}

	assert.Len(t, guarded, len(tests))
	assert.Len(t, NewRouter(gin.New()).Register(routes).Routes(), len(tests))
	assert.Contains(t, guarded, "GET /api/v1/imports/:id/errors/export")
	assert.Equal(t, []string{"/api/v1/imports/upload"}, uploadGuarded)
}
