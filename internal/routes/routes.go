package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopec/garage/internal/app"
	"github.com/autopec/garage/internal/handler"
	"github.com/autopec/garage/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.Cfg.AppName)
	repairs := handler.NewRepairHandler(app.RepairService)

	// Public form submissions are rate limited per client IP
	submitLimit := middleware.RateLimit(app.SubmitLimiter)

	mux := http.NewServeMux()

	// ============================================================================
	// SERVICE ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", health.Root)
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /api", health.Index)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// ============================================================================
	// REPAIRS API
	// ============================================================================

	mux.HandleFunc("POST /api/repairs/submit", submitLimit(repairs.Submit))
	mux.HandleFunc("GET /api/repairs", repairs.List)
	mux.HandleFunc("GET /api/repairs/status/{status}", repairs.ListByStatus)
	mux.HandleFunc("GET /api/repairs/track/{registration}", repairs.Track)
	mux.HandleFunc("PUT /api/repairs/{id}/status", repairs.UpdateStatus)
	mux.HandleFunc("DELETE /api/repairs/{id}", repairs.Delete)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Recover,
		middleware.Metrics,
		middleware.RequestLogging,
		middleware.CORS(app.Cfg.CORSAllowedOrigins), // Last so rejected origins are still logged
	)
}
