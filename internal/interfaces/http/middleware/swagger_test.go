package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earthcare/backend/internal/infrastructure/auth"
	"github.com/earthcare/backend/internal/infrastructure/config"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSwaggerRouter(cfg config.SwaggerConfig, jwtMiddleware gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/swagger/*any", SwaggerProtection(cfg, jwtMiddleware), func(c *gin.Context) {
		c.String(http.StatusOK, "swagger")
	})
	return router
}

func serveSwagger(router *gin.Engine, remoteAddr, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSwaggerProtection_Disabled(t *testing.T) {
	router := newSwaggerRouter(config.SwaggerConfig{Enabled: false}, nil)

	w := serveSwagger(router, "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestSwaggerProtection_EnabledWithoutRestrictions(t *testing.T) {
	router := newSwaggerRouter(config.SwaggerConfig{Enabled: true}, nil)

	w := serveSwagger(router, "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "swagger", w.Body.String())
}

func TestSwaggerProtection_AllowList(t *testing.T) {
	cfg := config.SwaggerConfig{
		Enabled:    true,
		AllowedIPs: []string{"192.168.1.10", "10.0.0.0/8", "not-an-ip"},
	}
	router := newSwaggerRouter(cfg, nil)

	tests := []struct {
		name       string
		remoteAddr string
		wantStatus int
	}{
		{"exact address", "192.168.1.10:5000", http.StatusOK},
		{"inside cidr", "10.20.30.40:5000", http.StatusOK},
		{"outside list", "172.16.0.1:5000", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveSwagger(router, tt.remoteAddr, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Error.Code)
			}
		})
	}
}

func TestSwaggerProtection_RequireAuth(t *testing.T) {
	svc := newTestJWTService()
	cfg := config.SwaggerConfig{Enabled: true, RequireAuth: true}
	router := newSwaggerRouter(cfg, JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: svc}))

	t.Run("missing token", func(t *testing.T) {
		w := serveSwagger(router, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _ := newTestToken(t, svc, auth.PlanFree)
		w := serveSwagger(router, "", token)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestIsIPAllowed(t *testing.T) {
	ips, nets := parseAllowList([]string{" 127.0.0.1 ", "::1", "192.168.0.0/16", "bad/cidr"})

	assert.True(t, isIPAllowed(net.ParseIP("127.0.0.1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("::1"), ips, nets))
	assert.True(t, isIPAllowed(net.ParseIP("192.168.44.2"), ips, nets))
	assert.False(t, isIPAllowed(net.ParseIP("8.8.8.8"), ips, nets))
	assert.False(t, isIPAllowed(nil, ips, nets))
	assert.Len(t, nets, 1)
}
