// Package api provides the HTTP server for glyph lookups.
//
// It wraps a glyphs.Converter and the sign-list lookups to expose
// conversion, reading and glyph-name queries as JSON endpoints, and serves
// the published dataset files from the output directory.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/julianknutsen/cuneiset/internal/glyphs"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/signlist"
)

// Options configures a Server.
type Options struct {
	Lookups *signlist.Lookups
	DataDir string // optional; enables the dataset endpoints
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Server is the HTTP API server.
type Server struct {
	lookups *signlist.Lookups
	conv    *glyphs.Converter
	dataDir string
	log     *slog.Logger
	metrics *metrics.Metrics
	router  chi.Router
}

// New creates a Server backed by the given lookups.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		lookups: opts.Lookups,
		conv:    glyphs.NewConverter(opts.Lookups),
		dataDir: opts.DataDir,
		log:     log.With("component", "api"),
		metrics: opts.Metrics,
		router:  chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Stats returns the conversion counts accumulated across requests.
func (s *Server) Stats() *glyphs.Stats { return s.conv.Stats() }
