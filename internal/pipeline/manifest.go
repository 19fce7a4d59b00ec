package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
	"github.com/julianknutsen/cuneiset/internal/split"
)

// ManifestFile is the manifest's file name in the output directory.
const ManifestFile = "run_manifest.json"

// DatasetFiles lists the files that make up a published dataset, relative
// to the output directory.
func DatasetFiles() []string {
	files := make([]string, 0, len(split.Names)+3)
	for _, name := range split.Names {
		files = append(files, filepath.Base(split.OutputPath(".", name)))
	}
	return append(files, glyphs.OutputFile, split.SummaryFile, ManifestFile)
}

// Output is one file a stage wrote, relative to the output directory.
type Output struct {
	Path  string `json:"path"`
	Hash  string `json:"hash"` // "sha256:<hex>"
	Bytes int64  `json:"bytes"`
}

// StageRecord is what one stage did.
type StageRecord struct {
	Stage    Stage     `json:"stage"`
	Started  time.Time `json:"started"`
	Seconds  float64   `json:"seconds"`
	Rows     int       `json:"rows"`
	Dropped  int       `json:"dropped,omitempty"`
	Skipped  int       `json:"skipped,omitempty"`
	Note     string    `json:"note,omitempty"`
	Outputs  []Output  `json:"outputs,omitempty"`
	SkipIDs  []string  `json:"skip_ids,omitempty"`
	Warnings int       `json:"warnings,omitempty"`

	Reports []dataset.Report `json:"reports,omitempty"`
}

// RunConfig is the part of the configuration that shapes the dataset.
type RunConfig struct {
	Corpora      []string `json:"corpora"`
	TestFraction float64  `json:"test_fraction"`
	ValFraction  float64  `json:"val_fraction"`
	Seed         int64    `json:"seed"`
	TrainOnly    []string `json:"train_only_genres"`
}

// Manifest records one pipeline run.
type Manifest struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Config   RunConfig     `json:"config"`
	Stages   []StageRecord `json:"stages"`
	Error    string        `json:"error,omitempty"`
}

// Stage returns the record of the named stage, or nil.
func (m *Manifest) Stage(s Stage) *StageRecord {
	for i := range m.Stages {
		if m.Stages[i].Stage == s {
			return &m.Stages[i]
		}
	}
	return nil
}

// Outputs returns every output of every stage in run order.
func (m *Manifest) Outputs() []Output {
	var out []Output
	for _, s := range m.Stages {
		out = append(out, s.Outputs...)
	}
	return out
}

var errNoRunID = errors.New("manifest: run_id is required")

// EncodeManifest serializes m as indented JSON.
func EncodeManifest(m *Manifest) ([]byte, error) {
	if m.RunID == "" {
		return nil, errNoRunID
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(b, '\n'), nil
}

// DecodeManifest parses a manifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if m.RunID == "" {
		return nil, errNoRunID
	}
	return &m, nil
}

// WriteManifest writes m to dir/ManifestFile.
func WriteManifest(dir string, m *Manifest) error {
	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// ReadManifest reads dir/ManifestFile.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	return DecodeManifest(data)
}

// HashFile returns the "sha256:<hex>" digest and size of a file.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), n, nil
}

func describeOutputs(dir string, paths []string) ([]Output, error) {
	out := make([]Output, 0, len(paths))
	for _, p := range paths {
		hash, n, err := HashFile(p)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = p
		}
		out = append(out, Output{Path: filepath.ToSlash(rel), Hash: hash, Bytes: n})
	}
	return out, nil
}

// VerifyResult compares one recorded output with the file on disk.
type VerifyResult struct {
	Path         string
	Match        bool
	Missing      bool
	ExpectedHash string
	ActualHash   string
}

// Verify re-hashes every output recorded in m under dir.
func Verify(dir string, m *Manifest) ([]VerifyResult, error) {
	var results []VerifyResult
	for _, o := range m.Outputs() {
		r := VerifyResult{Path: o.Path, ExpectedHash: o.Hash}
		actual, _, err := HashFile(filepath.Join(dir, filepath.FromSlash(o.Path)))
		switch {
		case errors.Is(err, os.ErrNotExist):
			r.Missing = true
		case err != nil:
			return nil, fmt.Errorf("hashing %s: %w", o.Path, err)
		default:
			r.ActualHash = actual
			r.Match = actual == o.Hash
		}
		results = append(results, r)
	}
	return results, nil
}
