package api

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/julianknutsen/cuneiset/internal/clean"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// --- Lookup handlers ---

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Transliteration) == "" {
		writeError(w, r, http.StatusBadRequest, "transliteration is required")
		return
	}

	text := req.Transliteration
	var issues []string
	if req.Clean {
		var found []clean.Issue
		text, found = clean.Text(req.ID, text)
		for _, is := range found {
			issues = append(issues, is.String())
		}
		if !clean.HasText(text) {
			writeError(w, r, http.StatusUnprocessableEntity, "nothing left after cleaning")
			return
		}
	}

	c := s.conv.Convert(text)
	writeJSON(w, r, http.StatusOK, ConvertResponse{
		Transliteration: c.Transliteration,
		GlyphNames:      c.GlyphNames,
		Glyphs:          c.Glyphs,
		GlyphCount:      glyphs.CountGlyphs(c.Glyphs),
		Issues:          issues,
	})
}

func (s *Server) handleReading(w http.ResponseWriter, r *http.Request) {
	reading := pathParam(r, "reading")
	names, ok := s.lookups.GlyphNames(reading)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown reading "+reading)
		return
	}
	resp := ReadingResponse{
		Reading:    reading,
		GlyphNames: make([]GlyphNameJSON, len(names)),
		Ambiguous:  len(names) > 1,
	}
	for i, name := range names {
		glyph, _ := s.lookups.Unicode(name)
		resp.GlyphNames[i] = GlyphNameJSON{Name: name, Glyph: glyph}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleGlyphName(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if !s.lookups.HasGlyphName(name) {
		writeError(w, r, http.StatusNotFound, "unknown glyph name "+name)
		return
	}
	glyph, _ := s.lookups.Unicode(name)
	readings := s.lookups.Readings(name)
	if readings == nil {
		readings = []string{}
	}
	writeJSON(w, r, http.StatusOK, GlyphNameResponse{Name: name, Glyph: glyph, Readings: readings})
}

// --- Dataset handlers ---

func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	m, err := s.manifest()
	if err != nil {
		s.datasetError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	files, runID, err := s.datasetFiles()
	if err != nil {
		s.datasetError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, DatasetsResponse{RunID: runID, Files: files})
}

func (s *Server) datasetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoDataDir), errors.Is(err, os.ErrNotExist):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		s.log.ErrorContext(r.Context(), "reading dataset", "error", err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}
