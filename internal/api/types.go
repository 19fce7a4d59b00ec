package api

// ConvertRequest is the body of POST /api/convert.
type ConvertRequest struct {
	Transliteration string `json:"transliteration"`
	// Clean runs the transliteration through the cleaning rules first.
	Clean bool   `json:"clean,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ConvertResponse is the JSON response for POST /api/convert.
type ConvertResponse struct {
	Transliteration string   `json:"transliteration"`
	GlyphNames      string   `json:"glyph_names"`
	Glyphs          string   `json:"glyphs"`
	GlyphCount      int      `json:"glyph_count"`
	Issues          []string `json:"issues,omitempty"`
}

// ReadingResponse is the JSON response for GET /api/readings/{reading}.
type ReadingResponse struct {
	Reading    string          `json:"reading"`
	GlyphNames []GlyphNameJSON `json:"glyph_names"`
	Ambiguous  bool            `json:"ambiguous"`
}

// GlyphNameJSON is a glyph name with its unicode rendering, if any.
type GlyphNameJSON struct {
	Name  string `json:"name"`
	Glyph string `json:"glyph,omitempty"`
}

// GlyphNameResponse is the JSON response for GET /api/glyph-names/{name}.
type GlyphNameResponse struct {
	Name     string   `json:"name"`
	Glyph    string   `json:"glyph"`
	Readings []string `json:"readings"`
}

// DatasetFileJSON describes one downloadable dataset file.
type DatasetFileJSON struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
	Hash  string `json:"hash,omitempty"`
	URL   string `json:"url"`
}

// DatasetsResponse is the JSON response for GET /api/datasets.
type DatasetsResponse struct {
	RunID string            `json:"run_id,omitempty"`
	Files []DatasetFileJSON `json:"files"`
}

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
