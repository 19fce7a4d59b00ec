// Package oracc reads ePSD2 corpus exports from Oracc: the per-corpus
// catalogue, the per-text CDL JSON bodies, and the zip archives they ship in.
package oracc

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownCorpus indicates a corpus name outside the supported set.
var ErrUnknownCorpus = errors.New("unknown corpus")

// DefaultBaseURL is where Oracc publishes the ePSD2 JSON zips.
const DefaultBaseURL = "http://oracc.museum.upenn.edu/json"

// Corpus names one ePSD2 sub-corpus.
type Corpus string

// Supported corpora, in processing order.
const (
	AdminED12     Corpus = "admin_ed12"
	AdminED3a     Corpus = "admin_ed3a"
	AdminED3b     Corpus = "admin_ed3b"
	AdminOldAkk   Corpus = "admin_oakk"
	AdminLagash2  Corpus = "admin_lagash2"
	AdminUr3      Corpus = "admin_ur3"
	LiteraryEarly Corpus = "early_lit"
	LiteraryOB    Corpus = "oldbab_lit"
	Royal         Corpus = "royal"
	Incantations  Corpus = "incantations"
	Liturgies     Corpus = "liturgies"
	Udughul       Corpus = "udughul"
	Varia         Corpus = "varia"
)

var corpora = []Corpus{
	AdminED12, AdminED3a, AdminED3b, AdminOldAkk, AdminLagash2, AdminUr3,
	LiteraryEarly, LiteraryOB, Royal, Incantations, Liturgies, Udughul, Varia,
}

var archiveNames = map[Corpus]string{
	AdminED12:     "epsd2-admin-ed12",
	AdminED3a:     "epsd2-admin-ed3a",
	AdminED3b:     "epsd2-admin-ed3b",
	AdminOldAkk:   "epsd2-admin-oakk",
	AdminLagash2:  "epsd2-admin-lagash2",
	AdminUr3:      "epsd2-admin-ur3",
	LiteraryEarly: "epsd2-earlylit",
	LiteraryOB:    "epsd2-literary",
	Royal:         "epsd2-royal",
	Incantations:  "epsd2-praxis",
	Liturgies:     "epsd2-praxis-liturgy",
	Udughul:       "epsd2-praxis-udughul",
	Varia:         "epsd2-praxis-varia",
}

// Corpora returns every supported corpus in processing order.
func Corpora() []Corpus {
	out := make([]Corpus, len(corpora))
	copy(out, corpora)
	return out
}

// CorpusNames returns the names of every supported corpus.
func CorpusNames() []string {
	names := make([]string, len(corpora))
	for i, c := range corpora {
		names[i] = string(c)
	}
	return names
}

// ParseCorpus validates a corpus name.
func ParseCorpus(name string) (Corpus, error) {
	c := Corpus(strings.TrimSpace(name))
	if _, ok := archiveNames[c]; !ok {
		return "", fmt.Errorf("%w %q (available: %s)", ErrUnknownCorpus, name, strings.Join(CorpusNames(), ", "))
	}
	return c, nil
}

// ParseCorpora validates a list of names. An empty list selects every corpus.
func ParseCorpora(names []string) ([]Corpus, error) {
	if len(names) == 0 {
		return Corpora(), nil
	}
	out := make([]Corpus, 0, len(names))
	for _, n := range names {
		c, err := ParseCorpus(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ArchiveName returns the zip file name on the Oracc server.
func (c Corpus) ArchiveName() string {
	return archiveNames[c] + ".zip"
}

// URL returns the download URL of the corpus zip under base.
func (c Corpus) URL(base string) string {
	return strings.TrimRight(base, "/") + "/" + c.ArchiveName()
}

// UsesComposite reports whether texts in this corpus are keyed by
// id_composite rather than id_text when both are present.
func (c Corpus) UsesComposite() bool {
	switch c {
	case LiteraryEarly, LiteraryOB, Royal:
		return true
	}
	return false
}

// Dir returns where the extracted corpus lives under cacheDir.
func (c Corpus) Dir(cacheDir string) string {
	return filepath.Join(cacheDir, "corpora", string(c))
}
