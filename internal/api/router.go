package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP routing tree. The metrics registry may be
// nil to omit the /metrics endpoint.
func NewRouter(handler *TaskHandler, registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", handler.SubmitTask)
			r.Get("/", handler.ListTasks)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handler.GetTask)
				r.Post("/retry", handler.RetryTask)
				r.Post("/cancel", handler.CancelTask)
				r.Get("/calls", handler.ListCalls)
			})
		})
		r.Get("/stats", handler.GetStats)
	})

	return r
}
