package dataset

import (
	"fmt"
	"strings"
)

// Column names shared across stages.
const (
	ColID                   = "id"
	ColTransliteration      = "transliteration"
	ColTransliterationClean = "transliteration_clean"
	ColGlyphNames           = "glyph_names"
	ColGlyphs               = "glyphs"
	ColPeriod               = "period"
	ColGenre                = "genre"
	ColLanguage             = "language"
	ColLangs                = "langs"
)

// FinalColumns is the column order of the glyph and split outputs.
var FinalColumns = []string{ColID, ColTransliteration, ColGlyphNames, ColGlyphs, ColPeriod, ColGenre}

// Tablet is one row of the final dataset.
type Tablet struct {
	ID              string `json:"id"`
	Transliteration string `json:"transliteration"`
	GlyphNames      string `json:"glyph_names"`
	Glyphs          string `json:"glyphs"`
	Period          string `json:"period"`
	Genre           string `json:"genre"`
}

// Tablets reads the final columns of t as records.
func Tablets(t *Table) ([]Tablet, error) {
	if err := t.Require(FinalColumns...); err != nil {
		return nil, err
	}
	out := make([]Tablet, t.Len())
	for i := range out {
		r := t.Row(i)
		out[i] = Tablet{
			ID:              r.Get(ColID),
			Transliteration: r.Get(ColTransliteration),
			GlyphNames:      r.Get(ColGlyphNames),
			Glyphs:          r.Get(ColGlyphs),
			Period:          r.Get(ColPeriod),
			Genre:           r.Get(ColGenre),
		}
	}
	return out, nil
}

// Skip records one record that a stage could not process.
type Skip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// SkipList collects per-record failures without aborting a stage.
type SkipList []Skip

// Add records a failure.
func (s *SkipList) Add(id string, err error) {
	*s = append(*s, Skip{ID: id, Reason: err.Error()})
}

// IDs returns the skipped record IDs in order.
func (s SkipList) IDs() []string {
	ids := make([]string, len(s))
	for i, sk := range s {
		ids[i] = sk.ID
	}
	return ids
}

// String summarises the list as a count and the skipped IDs.
func (s SkipList) String() string {
	if len(s) == 0 {
		return "0 skipped"
	}
	return fmt.Sprintf("%d skipped: %s", len(s), strings.Join(s.IDs(), ", "))
}
