package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/climap/internal/catalog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *catalog.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Package database.
	r.Get("/packages", h.ListPackages)
	r.Get("/packages/{name}", h.GetPackage)
	r.Get("/validation", h.Validation)
	r.Post("/merge", h.Merge)

	// Crossref.
	r.Get("/candidates", h.Candidates)
	r.Post("/crossref", h.Crossref)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
