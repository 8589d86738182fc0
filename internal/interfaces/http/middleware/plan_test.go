package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/earthcare/backend/internal/infrastructure/auth"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRequirePlan(t *testing.T) {
	jwtService := newTestJWTService()

	router := gin.New()
	router.Use(JWTAuthMiddleware(jwtService), RequirePlan(auth.PlanCrowdPro, zaptest.NewLogger(t)))
	router.POST("/imports/upload", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	tests := []struct {
		plan       auth.Plan
		wantStatus int
	}{
		{auth.PlanFree, http.StatusForbidden},
		{"", http.StatusForbidden},
		{auth.PlanCrowdPro, http.StatusCreated},
		{auth.PlanCrowdBusiness, http.StatusCreated},
		{auth.PlanEnterprise, http.StatusCreated},
		{auth.Plan("platinum"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run("plan="+string(tt.plan), func(t *testing.T) {
			token, _ := newTestToken(t, jwtService, tt.plan)
			req := httptest.NewRequest(http.MethodPost, "/imports/upload", nil)
			req.Header.Set(AuthHeaderKey, BearerPrefix+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodePlanRequired, decodeError(t, rec).Error.Code)
			}
		})
	}
}
