package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// registerRoutes wires all endpoints onto the router.
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method("GET", "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/convert", s.handleConvert)
		r.Get("/readings/{reading}", s.handleReading)
		r.Get("/glyph-names/{name}", s.handleGlyphName)

		// Dataset endpoints.
		r.Get("/manifest", s.handleManifest)
		r.Get("/datasets", s.handleDatasets)
	})

	r.Get("/datasets/{file}", s.handleDatasetFile)
}
