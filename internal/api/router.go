// Package api serves the read-only dashboard endpoints over the same store
// the analysis pipeline writes to.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"newsadvisor/internal/api/handlers"
	"newsadvisor/internal/storage"
)

// NewRouter creates and configures the HTTP router for the dashboard API.
func NewRouter(store storage.Store) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/llm-responses/today", handlers.TodayResponses(store))
	})

	return r
}
