// Package api exposes the county health lookup endpoints over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sells-group/county-health-api/internal/store"
)

// Server holds the handlers' dependencies. Handlers are stateless; the only
// shared state is the store's connection pool and the immutable catalog.
type Server struct {
	store store.Store
}

// NewServer creates a Server over the given store.
func NewServer(st store.Store) *Server {
	return &Server{store: st}
}

// Router builds the chi router with middleware, routes, and the fallback
// handlers that keep every error response in the {"error": msg} shape.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(recoverPanic)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Post("/county_data", s.handleCountyData)
	r.Get("/measures", s.handleMeasures)
	r.Get("/tables", s.handleTables)
	r.Get("/health", s.handleHealth)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
