package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, ErrorResponse{Error: msg})
}

// decodeJSON reads the request body as JSON into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close() //nolint:errcheck // best-effort close
	return render.DecodeJSON(r.Body, v)
}

// pathParam returns a URL parameter. chi matches against the raw path when
// the request has one, and its parameters are then still escaped.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
