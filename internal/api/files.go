package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/julianknutsen/cuneiset/internal/pipeline"
)

var errNoDataDir = errors.New("no dataset directory configured")

func (s *Server) manifest() (*pipeline.Manifest, error) {
	if s.dataDir == "" {
		return nil, errNoDataDir
	}
	return pipeline.ReadManifest(s.dataDir)
}

// datasetFiles lists the dataset files present in the data directory.
// Hashes come from the run manifest when there is one.
func (s *Server) datasetFiles() ([]DatasetFileJSON, string, error) {
	if s.dataDir == "" {
		return nil, "", errNoDataDir
	}
	hashes := map[string]string{}
	var runID string
	m, err := pipeline.ReadManifest(s.dataDir)
	switch {
	case err == nil:
		runID = m.RunID
		for _, o := range m.Outputs() {
			hashes[o.Path] = o.Hash
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, "", err
	}

	files := []DatasetFileJSON{}
	for _, name := range pipeline.DatasetFiles() {
		fi, err := os.Stat(filepath.Join(s.dataDir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		files = append(files, DatasetFileJSON{
			Name:  name,
			Bytes: fi.Size(),
			Hash:  hashes[name],
			URL:   "/datasets/" + name,
		})
	}
	return files, runID, nil
}

// handleDatasetFile serves one dataset file. Only names in
// pipeline.DatasetFiles are reachable.
func (s *Server) handleDatasetFile(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "file")
	if s.dataDir == "" || !slices.Contains(pipeline.DatasetFiles(), name) {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.dataDir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	switch filepath.Ext(name) {
	case ".csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case ".json":
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}
