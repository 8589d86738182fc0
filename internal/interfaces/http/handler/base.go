package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/earthcare/backend/internal/domain/shared"
	"github.com/earthcare/backend/internal/infrastructure/logger"
	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/earthcare/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errNoClaims = errors.New("request carries no authenticated claims")

// caller is the authenticated identity behind a request
type caller struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
}

// callerFrom reads the identity the JWT middleware stored. Headers are never consulted.
func callerFrom(c *gin.Context) (caller, error) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		return caller{}, errNoClaims
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return caller{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	workspaceID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return caller{}, fmt.Errorf("invalid tenant_id claim: %w", err)
	}
	return caller{UserID: userID, WorkspaceID: workspaceID}, nil
}

// BaseHandler holds the response helpers shared by all handlers
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a page of data with its paging meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Error writes the error envelope, stamped with the request id
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError never carries details; the cause is only logged.
func (h *BaseHandler) InternalError(c *gin.Context) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// HandleError translates a domain error code into its API code and status.
// Anything without a mapped code is logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.DomainErrorCode(domainErr.Code)
		if code != dto.ErrCodeInternal {
			h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("Request failed",
		zap.Error(err),
		zap.String("route", c.FullPath()),
	)
	h.InternalError(c)
}
