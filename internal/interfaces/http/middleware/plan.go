package middleware

import (
	"net/http"

	"github.com/earthcare/backend/internal/infrastructure/auth"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequirePlan rejects callers whose token plan ranks below min.
// It must run after the JWT middleware.
func RequirePlan(min auth.Plan, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		plan := GetJWTPlan(c)
		if plan.AtLeast(min) {
			c.Next()
			return
		}

		log.Info("Request rejected by plan gate",
			zap.String("plan", string(plan)),
			zap.String("required", string(min)),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodePlanRequired,
			"Bulk import requires the "+string(min)+" plan or higher",
			requestIDFrom(c),
		))
	}
}
