package router

import (
	"github.com/earthcare/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// ImportRoutesConfig wires the import handler with its guards
type ImportRoutesConfig struct {
	Handler *handler.ImportHandler
	// Guards run on every import route, typically JWT auth then the plan gate
	Guards []gin.HandlerFunc
	// UploadGuards run on the upload route only, after Guards
	UploadGuards []gin.HandlerFunc
}

// NewImportRoutes builds the /imports route group
func NewImportRoutes(cfg ImportRoutesConfig) *DomainGroup {
	h := cfg.Handler
	upload := append(append([]gin.HandlerFunc{}, cfg.UploadGuards...), h.Upload)

	return NewDomainGroup("imports", "/imports").
		Use(cfg.Guards...).
		POST("/upload", upload...).
		GET("/templates", h.Template).
		GET("", h.ListHistory).
		GET("/:id", h.GetStatus).
		POST("/:id/configure", h.Configure).
		POST("/:id/cancel", h.Cancel).
		GET("/:id/errors", h.ListErrors).
		GET("/:id/errors/export", h.ExportErrors)
}
