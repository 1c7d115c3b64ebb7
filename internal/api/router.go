package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/messnightlife/mess-web/internal/api/handlers"
	"github.com/messnightlife/mess-web/internal/config"
	"github.com/messnightlife/mess-web/internal/logger"
	"github.com/messnightlife/mess-web/middleware"
)

// Deps is everything the router serves from.
type Deps struct {
	Config    *config.Config
	Events    *handlers.EventHandler
	Pages     *handlers.PageHandler
	Readiness *handlers.ReadinessHandler
	// Redis shares rate limit windows across instances. Nil limits in-process.
	Redis *redis.Client
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// 1. Middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing("mess-web"))
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.GetHead)

	// 2. Probes and metrics stay outside the rate limit
	r.Get("/healthz", d.Readiness.Healthz)
	r.Get("/readyz", d.Readiness.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	// 3. Pages
	r.Group(func(r chi.Router) {
		if d.Config.RLEnabled {
			r.Use(middleware.RateLimit(d.Redis, d.Config.RLLimit, d.Config.RLWindow))
		}

		r.Get("/", d.Pages.Home)
		r.Get("/privacy", d.Pages.Static("privacy"))
		r.Get("/terms", d.Pages.Static("terms"))
		r.Get("/events/{id}", d.Events.GetEventPreview)
	})

	logger.Log.Debug().
		Str("api_origin", d.Config.APIOrigin).
		Bool("rate_limit", d.Config.RLEnabled).
		Msg("routes mounted")

	return r
}
