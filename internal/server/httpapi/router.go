package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/arcms/internal/server/metrics"
)

// Options configures the cross-cutting middleware.
type Options struct {
	AllowedOrigins  []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	// Development relaxes the security headers that assume TLS.
	Development bool
}

func NewRouter(h *Handler, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(metrics.Instrument)
	r.Use(middleware.Recoverer)
	r.Use(newSecureHeaders(opts.Development))
	r.Use(newCORS(opts.AllowedOrigins))

	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(newRateLimiter(opts.RateLimitMax, opts.RateLimitWindow).Handler)

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", h.register)
			ar.Post("/login", h.login)
			ar.Post("/refresh", h.refresh)
			ar.Post("/logout", h.logout)
			ar.With(h.authenticate).Get("/me", h.me)
		})

		api.Route("/projects", func(pr chi.Router) {
			pr.Use(h.authenticate)
			pr.Get("/", h.listProjects)
			pr.Post("/", h.createProject)
			pr.Get("/{id}", h.getProject)
			pr.Put("/{id}", h.updateProject)
			pr.Delete("/{id}", h.deleteProject)
			pr.Get("/{id}/stats", h.projectStats)
		})

		api.Route("/scenes", func(sr chi.Router) {
			sr.Use(h.authenticate)
			sr.Get("/project/{projectId}", h.listScenes)
			sr.Post("/", h.createScene)
			sr.Get("/{id}", h.getScene)
			sr.Put("/{id}", h.updateScene)
			sr.Delete("/{id}", h.deleteScene)
			sr.Post("/{id}/toggle", h.toggleScene)
			sr.Post("/{id}/content", h.addContent)
			sr.Delete("/{id}/content/{contentId}", h.deleteContent)
			sr.Post("/{id}/upload-url", h.createUploadURL)
		})

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/scenes/{id}", h.publicScene)
			pub.Get("/viewer/{sceneId}", h.viewer)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not Found", Message: "Route " + r.Method + " " + r.URL.Path + " not found"})
	})

	return r
}
