package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"invoicedash/internal/config"
	"invoicedash/internal/handler"
	"invoicedash/internal/middleware"
	"invoicedash/internal/observability/metrics"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Invoice   *handler.InvoiceHandler
	Upload    *handler.UploadHandler
	Dashboard *handler.DashboardHandler
	Settings  *handler.SettingsHandler
	Health    *handler.HealthHandler
}

// Setup configures the Gin engine with all routes and middleware. m may be
// nil, in which case no /metrics route is mounted.
func Setup(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics, h Handlers) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Actor(cfg.Intake.DefaultUser))

	// Invoice routes
	invoices := v1.Group("/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.POST("", h.Invoice.Create)
	invoices.POST("/bulk-approve", h.Invoice.BulkApprove)
	invoices.POST("/export", h.Invoice.ExportBatch)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.PATCH("/:id", h.Invoice.Update)
	invoices.DELETE("/:id", h.Invoice.Delete)
	invoices.POST("/:id/approve", h.Invoice.Approve)
	invoices.POST("/:id/reject", h.Invoice.Reject)
	invoices.POST("/:id/flag", h.Invoice.Flag)
	invoices.PUT("/:id/fields/:key", h.Invoice.EditField)
	invoices.POST("/:id/validate", h.Invoice.Validate)
	invoices.GET("/:id/export", h.Invoice.Export)
	invoices.GET("/:id/document", h.Invoice.Document)

	v1.GET("/review-queue", h.Invoice.ReviewQueue)

	// Dashboard routes
	dashboard := v1.Group("/dashboard")
	dashboard.GET("/metrics", h.Dashboard.Metrics)
	dashboard.GET("/analytics", h.Dashboard.Analytics)

	// Settings routes
	settings := v1.Group("/settings")
	settings.GET("/thresholds", h.Settings.GetThresholds)
	settings.PUT("/thresholds", h.Settings.UpdateThresholds)

	// Upload routes
	uploads := v1.Group("/uploads")
	uploads.POST("", middleware.RateLimit(cfg.RateLimit.UploadRPS, cfg.RateLimit.UploadBurst), h.Upload.Upload)
	uploads.GET("/:id", h.Upload.GetJob)

	return r
}
