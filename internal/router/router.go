package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"itinera/internal/handler"
	"itinera/internal/middleware"
)

// Config carries the router's cross-cutting settings.
type Config struct {
	AllowedOrigins []string
	WebhookSecret  string
	Logger         *slog.Logger
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg Config,
	verifier *middleware.TokenVerifier,
	ingestH *handler.IngestHandler,
	tripH *handler.TripHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Inbound-mail webhook, authenticated by shared secret
	v1.POST("/ingest/email", middleware.WebhookGuard(cfg.WebhookSecret), ingestH.EmailWebhook)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(verifier))

	protected.POST("/ingest/upload", ingestH.Upload)

	trips := protected.Group("/trips")
	trips.GET("", tripH.List)
	trips.GET("/export", tripH.ExportCSV)
	trips.GET("/:id", tripH.GetByID)
	trips.PATCH("/:id", tripH.Rename)

	return r
}
