package oracc

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseCorpus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Corpus
		wantErr bool
	}{
		{"admin_ur3", AdminUr3, false},
		{" royal ", Royal, false},
		{"admin_oldbab", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCorpus(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownCorpus) {
				t.Errorf("ParseCorpus(%q) error = %v, want ErrUnknownCorpus", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCorpus(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestParseCorpora_EmptySelectsAll(t *testing.T) {
	t.Parallel()
	got, err := ParseCorpora(nil)
	if err != nil {
		t.Fatalf("ParseCorpora(nil) error: %v", err)
	}
	if len(got) != 13 {
		t.Errorf("ParseCorpora(nil) returned %d corpora, want 13", len(got))
	}
	if got[0] != AdminED12 || got[len(got)-1] != Varia {
		t.Errorf("ParseCorpora(nil) order = %v", got)
	}
}

func TestCorpusURL(t *testing.T) {
	t.Parallel()
	tests := map[Corpus]string{
		AdminUr3:     "http://oracc.museum.upenn.edu/json/epsd2-admin-ur3.zip",
		LiteraryOB:   "http://oracc.museum.upenn.edu/json/epsd2-literary.zip",
		Incantations: "http://oracc.museum.upenn.edu/json/epsd2-praxis.zip",
		Udughul:      "http://oracc.museum.upenn.edu/json/epsd2-praxis-udughul.zip",
	}
	for c, want := range tests {
		if got := c.URL(DefaultBaseURL + "/"); got != want {
			t.Errorf("%s.URL() = %q, want %q", c, got, want)
		}
	}
}

func TestUsesComposite(t *testing.T) {
	t.Parallel()
	for _, c := range Corpora() {
		want := c == LiteraryEarly || c == LiteraryOB || c == Royal
		if got := c.UsesComposite(); got != want {
			t.Errorf("%s.UsesComposite() = %v, want %v", c, got, want)
		}
	}
}

func TestCorpusDir(t *testing.T) {
	t.Parallel()
	got := Royal.Dir("/cache")
	if want := filepath.Join("/cache", "corpora", "royal"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}
