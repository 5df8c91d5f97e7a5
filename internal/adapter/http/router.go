package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/remitdesk/internal/adapter/http/handler"
	"github.com/iho/remitdesk/internal/adapter/http/middleware"
	"github.com/iho/remitdesk/internal/domain"
	"github.com/iho/remitdesk/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ServiceHandler     *handler.ServiceHandler
	QuoteHandler       *handler.QuoteHandler
	TransactionHandler *handler.TransactionHandler
	GroupHandler       *handler.GroupHandler
	HealthHandler      *handler.HealthHandler

	Logger zerolog.Logger

	// Optional
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	// TokenVerifier enables bearer authentication on /api/v1 when set.
	TokenVerifier middleware.TokenVerifier
	// MetricsHandler serves /metrics; defaults to the Prometheus default registry.
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Every authenticated operator may read; writes need the operator role
		// and catalog changes the admin role.
		write := requireRole(cfg, domain.RoleOperator)
		admin := requireRole(cfg, domain.RoleAdmin)

		// Services and commission records
		r.Route("/services", func(r chi.Router) {
			r.With(admin).Post("/", cfg.ServiceHandler.Create)
			r.Get("/", cfg.ServiceHandler.List)
			r.Get("/{id}", cfg.ServiceHandler.Get)
			r.With(admin).Post("/{id}/commissions", cfg.ServiceHandler.CreateCommission)
			r.Get("/{id}/commissions", cfg.ServiceHandler.ListCommissions)
			r.Get("/{id}/commission-by-day", cfg.ServiceHandler.CommissionByDay)
		})

		// Quotes
		r.Post("/quotes", cfg.QuoteHandler.Create)

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.With(write).Post("/", cfg.TransactionHandler.Create)
			r.With(write).Put("/changeGroup/{id}", cfg.GroupHandler.ChangeGroup)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.With(write).Put("/{id}", cfg.TransactionHandler.Update)
			r.With(write).Post("/{id}/finalize", cfg.TransactionHandler.Finalize)
		})

		// Clients
		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Get("/transactions", cfg.TransactionHandler.ListByClient)
			r.Get("/groups", cfg.GroupHandler.List)
			r.With(write).Post("/groups", cfg.GroupHandler.Create)
		})
	})

	return r
}

// requireRole is a no-op when authentication is disabled.
func requireRole(cfg RouterConfig, role domain.Role) func(http.Handler) http.Handler {
	if cfg.TokenVerifier == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequireRole(role)
}
