// Package router sets up the HTTP routes and middleware chain for the
// muralgen server. Authentication lives inside the handlers: every
// mutating packet carries its own bearer token.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"muralgen/internal/handlers"
	"muralgen/internal/middleware"
)

// New creates and returns the configured Chi router.
func New(api *handlers.API) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	// Health check — no auth.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", api.Login)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", api.Gallery)
			r.Post("/classify", api.Classify)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Post("/add", api.AddComment)
			r.Post("/remove", api.RemoveComment)
		})

		r.Post("/style", api.SetStyle)
		r.Post("/prompt/query", api.PromptQuery)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
