package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	// AllowedOrigins for CORS; empty allows any origin
	AllowedOrigins []string
	// Events serves the server-sent event stream at /events when set
	Events http.Handler
	// Metrics exposes prometheus metrics at /metrics
	Metrics bool
}

// NewRouter wires the tree API, events, health and metrics endpoints
func NewRouter(h *TreeHandler, logger *zap.Logger, opts RouterOptions) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match", "X-Request-ID"},
		ExposedHeaders: []string{"ETag", "X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/healthz", h.Health)
	if opts.Metrics {
		router.Handle("/metrics", promhttp.Handler())
	}
	if opts.Events != nil {
		router.Handle("/events", opts.Events)
	}

	router.Route("/api/trees", func(r chi.Router) {
		r.Get("/", h.ListTrees)

		r.Route("/{treeID}", func(r chi.Router) {
			r.Get("/", h.GetTree)
			r.Delete("/", h.ClearTree)
			r.Get("/validate", h.ValidateTree)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.SaveProfile)

			r.Get("/export/{format}", h.Export)
			r.Post("/import/{format}", h.Import)

			r.Route("/members/{memberID}", func(r chi.Router) {
				r.Get("/", h.GetMember)
				r.Patch("/", h.UpdateMember)
				r.Delete("/", h.DeleteMember)
				r.Post("/relatives", h.AddRelative)
			})
		})
	})

	return router
}
