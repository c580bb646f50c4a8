package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hanaplan/settled/internal/adapter/http/handler"
	"github.com/hanaplan/settled/internal/adapter/http/middleware"
	"github.com/hanaplan/settled/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SettlementHandler *handler.SettlementHandler
	AccountHandler    *handler.AccountHandler
	HealthHandler     *handler.HealthHandler
	Logger            zerolog.Logger
	Metrics           *metrics.Metrics
	RateLimiter       *middleware.RateLimiter
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Settlements
		r.Route("/settlements", func(r chi.Router) {
			// Batch triggers are expensive, throttle them per caller.
			limiter := cfg.RateLimiter
			if limiter == nil {
				limiter = middleware.NewRateLimiter(1, 3)
			}

			r.With(limiter.Limit).Post("/loans", cfg.SettlementHandler.RunLoans)
			r.With(limiter.Limit).Post("/savings", cfg.SettlementHandler.RunSavings)
			r.Get("/runs", cfg.SettlementHandler.ListRuns)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/history", cfg.AccountHandler.History)
		})
	})

	return r
}
