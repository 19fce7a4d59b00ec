package oracc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotDownloaded indicates the corpus has no extracted directory in the cache.
	ErrNotDownloaded = errors.New("corpus has not been downloaded")
	// ErrNoCatalogue indicates no catalogue.json was found under the corpus directory.
	ErrNoCatalogue = errors.New("no catalogue.json found")
	// ErrInvalidEntry indicates a catalogue member failed validation.
	ErrInvalidEntry = errors.New("invalid catalogue entry")
	// ErrNoFileID indicates a catalogue member names no text file.
	ErrNoFileID = errors.New("catalogue entry has no file id")
)

// CatalogueEntry is the metadata of one text as listed in catalogue.json.
type CatalogueEntry struct {
	Corpus      Corpus `json:"-"`
	Key         string `json:"-"`
	IDText      string `json:"id_text"`
	IDComposite string `json:"id_composite"`
	Designation string `json:"designation" validate:"required"`
	Language    string `json:"language" validate:"language"`
	Langs       string `json:"langs"`
	Period      string `json:"period" validate:"period"`
	Genre       string `json:"genre" validate:"genre"`
	Subgenre    string `json:"subgenre"`
	Supergenre  string `json:"supergenre" validate:"omitempty,oneof=ELA LEX LIT STL UNK unknown"`
	Provenience string `json:"provenience" validate:"required"`
	ObjectType  string `json:"object_type" validate:"object_type"`
	Project     string `json:"project" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=A D I"`
	MuseumNo    string `json:"museum_no"`

	// Extra holds every other catalogue field, keyed by its JSON name.
	Extra map[string]string `json:"-"`
}

// CatalogueFields are the named metadata columns, in output order.
var CatalogueFields = []string{
	"id_text", "id_composite", "designation", "language", "langs", "period",
	"genre", "subgenre", "supergenre", "provenience", "object_type", "project",
	"status",
}

// FileID returns the basename of the text's JSON file.
func (e CatalogueEntry) FileID() string {
	if e.Corpus.UsesComposite() && e.IDComposite != "" {
		return e.IDComposite
	}
	return e.IDText
}

// Field returns a metadata value by its catalogue name.
func (e CatalogueEntry) Field(name string) string {
	switch name {
	case "id_text":
		return e.IDText
	case "id_composite":
		return e.IDComposite
	case "designation":
		return e.Designation
	case "language":
		return e.Language
	case "langs":
		return e.Langs
	case "period":
		return e.Period
	case "genre":
		return e.Genre
	case "subgenre":
		return e.Subgenre
	case "supergenre":
		return e.Supergenre
	case "provenience":
		return e.Provenience
	case "object_type":
		return e.ObjectType
	case "project":
		return e.Project
	case "status":
		return e.Status
	case "museum_no":
		return e.MuseumNo
	}
	return e.Extra[name]
}

// FieldNames returns the catalogue names set on this entry: the named fields
// followed by the extras in sorted order.
func (e CatalogueEntry) FieldNames() []string {
	names := append([]string{}, CatalogueFields...)
	names = append(names, "museum_no")
	extras := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	return append(names, extras...)
}

func (e *CatalogueEntry) set(name, value string) {
	switch name {
	case "id_text":
		e.IDText = value
	case "id_composite":
		e.IDComposite = value
	case "designation":
		e.Designation = value
	case "language":
		e.Language = value
	case "langs":
		e.Langs = value
	case "period":
		e.Period = value
	case "genre":
		e.Genre = value
	case "subgenre":
		e.Subgenre = value
	case "supergenre":
		e.Supergenre = value
	case "provenience":
		e.Provenience = value
	case "object_type":
		e.ObjectType = value
	case "project":
		e.Project = value
	case "status":
		e.Status = value
	case "museum_no":
		e.MuseumNo = value
	default:
		if e.Extra == nil {
			e.Extra = make(map[string]string)
		}
		e.Extra[name] = value
	}
}

// Known values of the enumerated catalogue fields. The empty string means
// unspecified and is always accepted.
var (
	knownLanguages = setOf(
		"Akkadian", "non-Sumerian (Eblaite)", "non-Sumerian (undetermined)",
		"Sumerian", "S-A bilingual",
	)
	knownPeriods = setOf(
		"Early Dynastic I-II", "Early Dynastic IIIa", "Early Dynastic IIIb",
		"Ebla", "fake", "Lagash II", "Middle Babylonian", "Neo-Assyrian",
		"Neo-Babylonian", "Old Akkadian", "Old Babylonian", "Pre-Uruk V",
		"Ur III", "Uncertain", "Unknown",
	)
	knownGenres = setOf(
		"Administrative", "Astronomical", "Hymn-Prayer", "fake (modern)",
		"Legal", "Letter", "Lexical", "Lexical; School", "Literary", "Liturgy",
		"Mathematical", "Ritual", "Royal Inscription", "Royal/Monumental",
		"Scientific", "uncertain",
	)
	knownObjectTypes = setOf(
		"barrel", "Brand", "brick", "bulla", "Bulla", "Bulla (?)",
		"Clay sealing", "cone", "cylinder", "Cylinder Seal",
		"Cylindrical tablet", "Door sealing", "Envelope (?)",
		"Envelope - Closed", "Envelope - Closed (?)", "Envelope - Fragment",
		"Envelope - Fragment (?)", "Fake", "Fake (?)", "Jar sealing", "Label",
		"Label (?)", "Other", "other (see object remarks)", "prism",
		"Reproduction or cast", "Reproduction or cast (?)", "Round tablet",
		"seal (not impression)", "sealing", "tablet", "Tablet",
		"tablet & envelope", "Tablet and envelope", "Tablet and Envelope",
		"tag", "Uncertain",
	)
)

func setOf(values ...string) map[string]bool {
	m := make(map[string]bool, len(values)+1)
	m[""] = true
	for _, v := range values {
		m[v] = true
	}
	return m
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func entryValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		oneOf := func(known map[string]bool) validator.Func {
			return func(fl validator.FieldLevel) bool { return known[fl.Field().String()] }
		}
		_ = v.RegisterValidation("language", oneOf(knownLanguages))
		_ = v.RegisterValidation("period", oneOf(knownPeriods))
		_ = v.RegisterValidation("genre", oneOf(knownGenres))
		_ = v.RegisterValidation("object_type", oneOf(knownObjectTypes))
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"))
		})
		validate = v
	})
	return validate
}

func jsonName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

// Validate checks required fields and enumerated values.
func (e CatalogueEntry) Validate() error {
	err := entryValidator().Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			problems = append(problems, fe.Field()+" is required")
		} else {
			problems = append(problems, fmt.Sprintf("unknown %s %q", fe.Field(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidEntry, strings.Join(problems, "; "))
}

// Catalogue is a loaded corpus catalogue.
type Catalogue struct {
	Corpus  Corpus
	Dir     string
	TextDir string
	Entries []CatalogueEntry
}

// Load reads the catalogue of a downloaded corpus from cacheDir.
func Load(cacheDir string, corpus Corpus) (*Catalogue, error) {
	root := corpus.Dir(cacheDir)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s (expected %s)", ErrNotDownloaded, corpus, root)
	}
	dir, err := findCatalogueDir(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", corpus, err)
	}
	f, err := os.Open(filepath.Join(dir, "catalogue.json"))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	entries, err := DecodeCatalogue(f, corpus)
	if err != nil {
		return nil, fmt.Errorf("reading %s catalogue: %w", corpus, err)
	}
	return &Catalogue{
		Corpus:  corpus,
		Dir:     dir,
		TextDir: filepath.Join(dir, "corpusjson"),
		Entries: entries,
	}, nil
}

func findCatalogueDir(root string) (string, error) {
	found := ""
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "catalogue.json" {
			found = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoCatalogue
	}
	return found, nil
}

// DecodeCatalogue parses a catalogue.json document, keeping the members in
// the order they appear.
func DecodeCatalogue(r io.Reader, corpus Corpus) ([]CatalogueEntry, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var entries []CatalogueEntry
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "members" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("reading %q: %w", key, err)
			}
			continue
		}
		if entries, err = decodeMembers(dec, corpus); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func decodeMembers(dec *json.Decoder, corpus Corpus) ([]CatalogueEntry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	var entries []CatalogueEntry
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("member %s: %w", key, err)
		}
		entry := CatalogueEntry{Corpus: corpus, Key: key}
		for name, raw := range fields {
			entry.set(name, flatten(raw))
		}
		entries = append(entries, entry)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	return entries, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// flatten renders a catalogue value as a single string. Lists are joined
// with "; ".
func flatten(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if v := flatten(item); v != "" {
				parts = append(parts, v)
			}
		}
		return strings.Join(parts, "; ")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}
