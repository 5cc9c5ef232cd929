package market

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CampusMart/pkg/kit"
)

const metricsNamespace = "campusmart"

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// LoginRatePerMin caps login attempts per client IP. Zero disables
	// the limit.
	LoginRatePerMin int
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	s.metrics = setupMetrics(r, deps)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)

	r.Group(func(lr chi.Router) {
		if deps.LoginRatePerMin > 0 {
			lr.Use(kit.NewIPRateLimiter(deps.LoginRatePerMin, time.Minute).Middleware)
		}
		lr.Post("/auth/login", s.login)
	})

	r.Get("/listings", s.list)
	r.Get("/listings/{id}", s.get)
	r.Get("/categories", s.categories)

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(s.Tokens))
		pr.Get("/auth/whoami", s.whoami)
		pr.Post("/listings", s.create)
		pr.Delete("/listings/{id}", s.remove)
		pr.Get("/me/listings", s.mine)
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) *kit.Metrics {
	if deps.Registry == nil {
		return nil
	}

	metrics := kit.NewMetrics(deps.Registry, metricsNamespace)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if deps.MetricsEnabled {
		r.With(kit.MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	return metrics
}
