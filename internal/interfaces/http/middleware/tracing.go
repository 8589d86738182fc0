// Package middleware provides HTTP middleware for the import API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig controls the server span middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing starts a server span per request via otelgin. A disabled config
// yields a pass-through handler.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ecn-backend"
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanEnricher decorates the server span once the handler chain has run:
// request, workspace and user ids become attributes and 4xx/5xx responses
// mark the span as failed. Register it directly after Tracing; the JWT
// middleware may run later since claims are read after c.Next.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(identityAttributes(c)...)

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, spanErrorDescription(status))
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
	}
}

func identityAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for key, value := range map[string]string{
		"request_id":   requestIDFrom(c),
		"workspace_id": GetJWTTenantID(c),
		"user_id":      GetJWTUserID(c),
	} {
		if value != "" {
			attrs = append(attrs, attribute.String(key, value))
		}
	}
	return attrs
}

func spanErrorDescription(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Internal Server Error"
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusNotFound, status == http.StatusRequestEntityTooLarge:
		return http.StatusText(status)
	default:
		return "Client Error"
	}
}
