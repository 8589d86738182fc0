package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/earthcare/backend/internal/infrastructure/auth"
	"github.com/earthcare/backend/internal/infrastructure/logger"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	jwtClaimsKey = "jwt_claims"
)

var errMalformedAuthHeader = errors.New("authorization header is not a bearer token")

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig.
// Logger is optional.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	Logger     *zap.Logger
}

func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: jwtService})
}

// JWTAuthMiddlewareWithConfig rejects requests without a valid access token
// and exposes the claims to handlers. The caller's user and workspace are
// also attached to the request context for logging.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader(AuthHeaderKey))
		if err != nil {
			rejectToken(c, log, err)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			rejectToken(c, log, err)
			return
		}

		SetJWTClaims(c, claims)

		log.Debug("JWT authentication successful",
			zap.String("user_id", claims.UserID),
			zap.String("workspace_id", claims.TenantID),
			zap.String("plan", string(claims.Plan)),
		)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", errMalformedAuthHeader
	}
	return token, nil
}

func rejectToken(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	code, message := dto.ErrCodeTokenInvalid, "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		message = "Token is not yet valid"
	case errors.Is(err, errMalformedAuthHeader):
		message = "Missing or malformed bearer token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, requestIDFrom(c)))
}

// SetJWTClaims records an authenticated caller on the gin and request contexts.
func SetJWTClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(jwtClaimsKey, claims)
	ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
	c.Request = c.Request.WithContext(logger.WithWorkspaceID(ctx, claims.TenantID))
}

// GetJWTClaims returns the validated claims, or nil on unauthenticated routes.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(jwtClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// GetJWTTenantID returns the caller's workspace ID.
func GetJWTTenantID(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.TenantID
	}
	return ""
}

func GetJWTPlan(c *gin.Context) auth.Plan {
	if claims := GetJWTClaims(c); claims != nil {
		return claims.Plan
	}
	return ""
}
