package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/tumblrembed/internal/api/handler"
	mw "github.com/iconidentify/tumblrembed/internal/api/middleware"
)

// RouterConfig holds the router's deployment switches.
type RouterConfig struct {
	// OpsAPIKey guards /metrics and /stats when set.
	OpsAPIKey string
	// RequestTimeout bounds each request, including the platform round trips.
	RequestTimeout time.Duration
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	embedHandler *handler.EmbedHandler,
	healthHandler *handler.HealthHandler,
	metricsHandler http.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// Operational endpoints
	r.Group(func(r chi.Router) {
		r.Use(mw.OpsKeyAuth(cfg.OpsAPIKey))
		r.Get("/stats", healthHandler.Stats)
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	})

	// Embeds
	r.Get("/", embedHandler.Home)
	r.Get("/oembed", embedHandler.OEmbed)
	r.Get("/{username}", embedHandler.Post)
	r.Get("/{username}/{postID}", embedHandler.Post)
	r.Get("/{username}/{postID}/*", embedHandler.Post)

	return r
}
