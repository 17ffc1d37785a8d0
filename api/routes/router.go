package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lxp-platform/qna-engine/api/controllers"
	"github.com/lxp-platform/qna-engine/pkg/config"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

// NewRouter wires the engine's operational HTTP surface: health probes,
// service info and Prometheus metrics. The engine exposes no domain API;
// answers leave through the callback, not through this server.
func NewRouter(cfg *config.Config, logg *logger.Logger, deps ...controllers.Dependency) http.Handler {
	r := chi.NewRouter()

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps...))
	})
	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Get("/info", controllers.Info(cfg))
	r.Handle("/metrics", promhttp.Handler())

	return r
}
