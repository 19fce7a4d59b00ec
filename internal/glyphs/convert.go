package glyphs

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/julianknutsen/cuneiset/internal/clean"
	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/signlist"
)

// Unknown stands in for a reading, glyph name or glyph that could not be
// resolved.
const Unknown = "<unk>"

var specialTokens = map[string]bool{
	clean.Surface:    true,
	clean.Column:     true,
	clean.BlankSpace: true,
	clean.Ruling:     true,
	clean.Missing:    true,
	"\n":             true,
	Unknown:          true,
}

// Morpheme is one resolved sign.
type Morpheme struct {
	Reading   string
	GlyphName string
	Glyph     string
}

// Conversion is a transliteration rendered three ways, wordforms separated
// by spaces.
type Conversion struct {
	Transliteration string `json:"transliteration"`
	GlyphNames      string `json:"glyph_names"`
	Glyphs          string `json:"glyphs"`
}

// Stats counts how conversions went.
type Stats struct {
	Converted int
	Unknown   int

	UnknownSignNames map[string]int
	UnknownNumbers   map[string]int
	UnknownOther     map[string]int

	FoundUnicode int
	NameNotInMap map[string]int
	NoUnicode    map[string]int

	// Observed counts the readings seen for each glyph.
	Observed map[string]map[string]int
}

func newStats() *Stats {
	return &Stats{
		UnknownSignNames: make(map[string]int),
		UnknownNumbers:   make(map[string]int),
		UnknownOther:     make(map[string]int),
		NameNotInMap:     make(map[string]int),
		NoUnicode:        make(map[string]int),
		Observed:         make(map[string]map[string]int),
	}
}

func (s *Stats) observe(glyph, reading string) {
	m, ok := s.Observed[glyph]
	if !ok {
		m = make(map[string]int)
		s.Observed[glyph] = m
	}
	m[reading]++
}

func (s *Stats) merge(o *Stats) {
	s.Converted += o.Converted
	s.Unknown += o.Unknown
	s.FoundUnicode += o.FoundUnicode
	mergeCounts(s.UnknownSignNames, o.UnknownSignNames)
	mergeCounts(s.UnknownNumbers, o.UnknownNumbers)
	mergeCounts(s.UnknownOther, o.UnknownOther)
	mergeCounts(s.NameNotInMap, o.NameNotInMap)
	mergeCounts(s.NoUnicode, o.NoUnicode)
	for g, readings := range o.Observed {
		for r, n := range readings {
			if s.Observed[g] == nil {
				s.Observed[g] = make(map[string]int)
			}
			s.Observed[g][r] += n
		}
	}
}

func mergeCounts(dst, src map[string]int) {
	for k, n := range src {
		dst[k] += n
	}
}

// UnicodeMisses is the number of glyph names without a rendering.
func (s *Stats) UnicodeMisses() int { return sum(s.NameNotInMap) + sum(s.NoUnicode) }

func sum(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// Top returns the n most frequent entries of a counter, most frequent
// first, ties by value.
func Top(counter map[string]int, n int) []dataset.Count {
	out := make([]dataset.Count, 0, len(counter))
	for v, c := range counter {
		out = append(out, dataset.Count{Value: v, N: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Value < out[j].Value
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Converter maps transliterations to glyph names and glyphs. It is safe
// for concurrent use.
type Converter struct {
	lookups *signlist.Lookups

	mu    sync.Mutex
	stats *Stats
}

// NewConverter returns a Converter backed by l.
func NewConverter(l *signlist.Lookups) *Converter {
	return &Converter{lookups: l, stats: newStats()}
}

// Stats returns the counts accumulated so far.
func (c *Converter) Stats() *Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := newStats()
	s.merge(c.stats)
	return s
}

var (
	spaceRunRe     = regexp.MustCompile(` +`)
	newlineSpaceRe = regexp.MustCompile(` *\n *`)
	ellipsisRunRe  = regexp.MustCompile(`( *\.{3,} *)+`)
)

// Convert renders a cleaned transliteration. Known aliases are normalised
// first; every sign that cannot be resolved to exactly one glyph becomes
// Unknown in all three renderings.
func (c *Converter) Convert(text string) Conversion {
	st := newStats()
	text = Normalize(text)
	text = strings.ReplaceAll(text, "\n", " \n ")
	text = strings.ReplaceAll(text, clean.Missing, " "+clean.Missing+" ")
	text = spaceRunRe.ReplaceAllString(text, " ")

	var translit, names, glyphs strings.Builder
	for _, wf := range strings.Split(text, " ") {
		if wf == "" || wf == "|" || wf == ".|" {
			continue
		}
		data := c.wordform(wf, st)
		readings := make([]string, len(data))
		ns := make([]string, len(data))
		for i, m := range data {
			readings[i], ns[i] = m.Reading, m.GlyphName
			glyphs.WriteString(m.Glyph)
			if !specialTokens[m.Reading] {
				st.observe(m.Glyph, m.Reading)
			}
		}
		translit.WriteString(strings.Join(readings, "-") + " ")
		names.WriteString(strings.Join(ns, " ") + " ")
		glyphs.WriteString(" ")
	}

	c.mu.Lock()
	c.stats.merge(st)
	c.mu.Unlock()

	out := Conversion{
		Transliteration: strings.TrimSpace(translit.String()),
		GlyphNames:      strings.TrimSpace(names.String()),
		Glyphs:          strings.TrimSpace(glyphs.String()),
	}
	t := newlineSpaceRe.ReplaceAllString(out.Transliteration, "\n")
	t = strings.NewReplacer("-{", "{", "}-", "}").Replace(t)
	t = strings.ReplaceAll(t, Unknown+"-", Unknown+" ")
	t = strings.ReplaceAll(t, "-"+Unknown, " "+Unknown)
	out.Transliteration = ellipsisRunRe.ReplaceAllString(t, clean.Missing)
	out.GlyphNames = ellipsisRunRe.ReplaceAllString(out.GlyphNames, clean.Missing)
	out.Glyphs = strings.ReplaceAll(ellipsisRunRe.ReplaceAllString(out.Glyphs, clean.Missing), " ", "")
	return out
}

// Morphemes resolves a single wordform without touching the stats.
func (c *Converter) Morphemes(wordform string) []Morpheme {
	return c.wordform(Normalize(wordform), newStats())
}

func (c *Converter) wordform(wf string, st *Stats) []Morpheme {
	if specialTokens[wf] {
		return []Morpheme{{wf, wf, wf}}
	}

	var out []Morpheme
	for _, m := range SplitMorphemes(wf) {
		reading, candidates := c.candidates(m, st)
		name := Unknown
		if len(candidates) == 1 {
			name = candidates[0]
		}
		if name == Unknown {
			reading = Unknown
			st.Unknown++
		} else {
			st.Converted++
		}

		if name == "N" {
			continue
		}
		if swap, ok := glyphNameSwaps[name]; ok {
			name = swap
		}
		if reading == Unknown {
			out = append(out, Morpheme{Unknown, Unknown, Unknown})
			continue
		}
		glyph := c.unicode(name, st)
		if glyph == Unknown || strings.Contains(glyph, "X") {
			out = append(out, Morpheme{Unknown, Unknown, Unknown})
			continue
		}
		out = append(out, Morpheme{reading, name, glyph})
	}
	return out
}

var determinativeRe = regexp.MustCompile(`\{.*?\}`)

// SplitMorphemes breaks a wordform into signs: numbers are spelled out,
// determinatives split off, then the parts are split on spaces and on
// hyphens outside parentheses.
func SplitMorphemes(wf string) []string {
	if r, ok := numberReadings[wf]; ok {
		wf = r
	} else if head, tail, found := strings.Cut(wf, "-"); found {
		if r, ok := numberReadings[head]; ok {
			wf = r + "-" + tail
		}
	}

	var parts []string
	last := 0
	for _, loc := range determinativeRe.FindAllStringIndex(wf, -1) {
		parts = append(parts, wf[last:loc[0]], wf[loc[0]:loc[1]])
		last = loc[1]
	}
	parts = append(parts, wf[last:])

	var out []string
	for _, p := range parts {
		for _, s := range strings.Split(p, " ") {
			for _, m := range splitHyphens(s) {
				if m != "" {
					out = append(out, m)
				}
			}
		}
	}
	return out
}

// splitHyphens splits on hyphens unless the next parenthesis after the
// hyphen is a closing one.
func splitHyphens(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		if j := strings.IndexAny(s[i+1:], "()"); j >= 0 && s[i+1+j] == ')' {
			continue
		}
		out = append(out, s[start:i])
		start = i + 1
	}
	return append(out, s[start:])
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

// candidates returns the reading to emit for a morpheme and the glyph
// names it could stand for.
func (c *Converter) candidates(m string, st *Stats) (string, []string) {
	if m == "geš₂" {
		m = "ŋeš₂"
	}
	switch m {
	case "x", "n", "X", "N":
		return clean.Missing, []string{clean.Missing}
	}
	if numericRe.MatchString(m) {
		return c.numberCandidates(m, st)
	}
	if c.lookups.HasGlyphName(m) {
		return Unknown, []string{m}
	}

	bare := strings.NewReplacer("{", "", "}", "").Replace(m)
	if names, ok := c.lookups.GlyphNames(bare); ok {
		return m, names
	}

	// A sign name that is not itself in the list: its lowercase form is
	// usually a reading of the standard glyph.
	if isUpper(m) {
		if names, ok := c.lookups.GlyphNames(strings.ToLower(m)); ok {
			return Unknown, names
		}
		st.UnknownSignNames[m]++
		return Unknown, nil
	}

	if strings.Contains(m, "(") && strings.Contains(m, ")") {
		parts := strings.Split(m, "(")
		reading, name := parts[0], strings.ReplaceAll(parts[1], ")", "")
		if names, ok := c.lookups.GlyphNames(reading); ok {
			if len(names) == 1 {
				return reading, names
			}
			for _, n := range names {
				if n == name {
					return reading, []string{name}
				}
			}
		}
		if readings := c.lookups.Readings(name); len(readings) == 1 {
			return readings[0], []string{name}
		}
	}

	st.UnknownOther[m]++
	return m, nil
}

func (c *Converter) numberCandidates(m string, st *Stats) (string, []string) {
	if names, ok := c.lookups.GlyphNames(m); ok {
		return m, names
	}
	lower := strings.ToLower(m)
	if names, ok := c.lookups.GlyphNames(lower); ok {
		return lower, names
	}
	if c.lookups.HasGlyphName(m) {
		return m, []string{m}
	}
	st.UnknownNumbers[m]++
	return m, nil
}

func (c *Converter) unicode(name string, st *Stats) string {
	if specialTokens[name] {
		return name
	}
	u, ok := c.lookups.Unicode(name)
	switch {
	case !ok:
		st.NameNotInMap[name]++
		return Unknown
	case u == "":
		st.NoUnicode[name]++
		return Unknown
	}
	st.FoundUnicode++
	return u
}

var glyphStripper = strings.NewReplacer(
	clean.Surface, "", clean.Column, "", clean.BlankSpace, "", clean.Ruling, "",
	clean.Missing, "", "\n", "", Unknown, "", " ", "",
)

// CountGlyphs counts the signs in a glyphs string, ignoring special
// tokens.
func CountGlyphs(glyphs string) int {
	return len([]rune(glyphStripper.Replace(glyphs)))
}
