package signlist

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

type oslFile struct {
	Signlist struct {
		Letters []struct {
			Letter struct {
				Signs []struct {
					Sign oslSign `json:"sl:sign"`
				} `json:"j:signs"`
			} `json:"sl:letter"`
		} `json:"j:letters"`
	} `json:"sl:signlist"`
}

type oslName struct {
	N string `json:"n"`
}

type oslSign struct {
	N       string `json:"n"`
	Unicode string `json:"sl:ucun"`
	Aka     []struct {
		Aka oslName `json:"sl:aka"`
	} `json:"j:aka"`
	Values []struct {
		V *oslName `json:"sl:v"`
	} `json:"j:values"`
	Forms []struct {
		Form oslSign `json:"sl:form"`
	} `json:"j:forms"`
}

type epsd2File struct {
	Index map[string]string `json:"index"`
}

// Conflict is a glyph name with more than one unicode rendering.
type Conflict struct {
	Name     string
	Unicodes []string
}

// Build holds the tables derived from the sign lists, before they are
// reduced to their written form.
type Build struct {
	readings  map[string]map[string]bool
	unicodes  map[string]map[string]bool
	overrides map[string]string
}

func newBuild() *Build {
	return &Build{
		readings:  make(map[string]map[string]bool),
		unicodes:  make(map[string]map[string]bool),
		overrides: make(map[string]string),
	}
}

func decodeName(n string) string { return strings.ReplaceAll(n, "&amp;", "&") }

func (b *Build) addReading(name, reading string) {
	set, ok := b.readings[reading]
	if !ok {
		set = make(map[string]bool)
		b.readings[reading] = set
	}
	if name = decodeName(name); name != "" {
		set[name] = true
	}
}

func (b *Build) addGlyph(name, unicode string) {
	name = decodeName(name)
	set, ok := b.unicodes[name]
	if !ok {
		set = make(map[string]bool)
		b.unicodes[name] = set
	}
	if unicode != "" {
		set[unicode] = true
	}
}

func (b *Build) addSign(s oslSign, forms bool) {
	b.addGlyph(s.N, s.Unicode)
	for _, a := range s.Aka {
		b.addGlyph(a.Aka.N, s.Unicode)
	}
	for _, v := range s.Values {
		if v.V != nil {
			b.addReading(s.N, v.V.N)
		}
	}
	if !forms {
		return
	}
	for _, f := range s.Forms {
		b.addSign(f.Form, false)
	}
}

// ReadOSL adds the signs, forms and their readings from an OSL sl.json.
func (b *Build) ReadOSL(r io.Reader) error {
	var f oslFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("decoding sign list: %w", err)
	}
	for _, l := range f.Signlist.Letters {
		for _, s := range l.Letter.Signs {
			b.addSign(s.Sign, true)
		}
	}
	return nil
}

// ReadEPSD2 adds the ePSD2 reading index. Its entries replace whatever the
// OSL gives for the same reading.
func (b *Build) ReadEPSD2(r io.Reader) error {
	var f epsd2File
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return fmt.Errorf("decoding ePSD2 sign list: %w", err)
	}
	for reading, name := range f.Index {
		b.overrides[reading] = name
	}
	return nil
}

// Tables reduces the build to the lookup tables: reading to sorted glyph
// names, and glyph name to its first sorted unicode rendering.
func (b *Build) Tables() (*Tables, []Conflict) {
	t := &Tables{
		Readings: make(map[string][]string, len(b.readings)+len(b.overrides)),
		Unicode:  make(map[string]string, len(b.unicodes)),
	}
	for reading, set := range b.readings {
		t.Readings[reading] = sortedKeys(set)
	}
	for reading, name := range b.overrides {
		t.Readings[reading] = []string{name}
	}

	var conflicts []Conflict
	for name, set := range b.unicodes {
		vals := sortedKeys(set)
		if len(vals) > 1 {
			conflicts = append(conflicts, Conflict{Name: name, Unicodes: vals})
		}
		if len(vals) > 0 {
			t.Unicode[name] = vals[0]
		} else {
			t.Unicode[name] = ""
		}
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Name < conflicts[j].Name })
	return t, conflicts
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
