package middleware

import (
	"fmt"
	"net/http"

	"github.com/earthcare/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

type bodyLimitConfig struct {
	code string
}

type BodyLimitOption func(*bodyLimitConfig)

// WithLimitErrorCode replaces ERR_REQUEST_TOO_LARGE in the 413 response,
// e.g. with the upload-specific file size code.
func WithLimitErrorCode(code string) BodyLimitOption {
	return func(cfg *bodyLimitConfig) { cfg.code = code }
}

// BodyLimit rejects requests whose declared Content-Length exceeds maxBytes
// and caps chunked bodies with http.MaxBytesReader, so reading past the
// limit fails with *http.MaxBytesError.
func BodyLimit(maxBytes int64, opts ...BodyLimitOption) gin.HandlerFunc {
	cfg := bodyLimitConfig{code: dto.ErrCodeRequestTooLarge}
	for _, opt := range opts {
		opt(&cfg)
	}
	message := fmt.Sprintf("Request body exceeds the maximum of %d bytes", maxBytes)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(cfg.code, message, requestIDFrom(c)))
			return
		}
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
