package oracc

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestClient_Download(t *testing.T) {
	t.Parallel()
	archive := zipBytes(t, map[string]string{
		"royal/catalogue.json":          sampleCatalogue,
		"royal/corpusjson/Q000377.json": `{"cdl": []}`,
	})
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/epsd2-royal.zip" {
			t.Errorf("path = %s, want /epsd2-royal.zip", r.URL.Path)
		}
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	cache := t.TempDir()
	client := NewClient(server.URL, cache, 5*time.Second)

	fetched, err := client.Download(context.Background(), Royal)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !fetched {
		t.Error("Download reported no fetch on first call")
	}
	if _, err := os.Stat(filepath.Join(Royal.Dir(cache), "royal", "catalogue.json")); err != nil {
		t.Errorf("catalogue not extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cache, "corpora", "epsd2-royal.zip")); !os.IsNotExist(err) {
		t.Errorf("zip not removed: %v", err)
	}

	fetched, err = client.Download(context.Background(), Royal)
	if err != nil || fetched {
		t.Errorf("second Download = %v, %v; want false, nil", fetched, err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}

	cat, err := Load(cache, Royal)
	if err != nil {
		t.Fatalf("Load after download: %v", err)
	}
	if len(cat.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(cat.Entries))
	}
}

func TestClient_DownloadHTTPError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache := t.TempDir()
	client := NewClient(server.URL, cache, 5*time.Second)
	_, err := client.Download(context.Background(), Varia)
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Download = %v, want DownloadError", err)
	}
	if dlErr.Corpus != Varia {
		t.Errorf("DownloadError.Corpus = %q", dlErr.Corpus)
	}
	if client.Downloaded(Varia) {
		t.Error("corpus marked downloaded after failure")
	}
}

func TestClient_DownloadBadArchive(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a zip"))
	}))
	defer server.Close()

	cache := t.TempDir()
	client := NewClient(server.URL, cache, 5*time.Second)
	_, err := client.Download(context.Background(), Udughul)
	var exErr *ExtractionError
	if !errors.As(err, &exErr) {
		t.Fatalf("Download = %v, want ExtractionError", err)
	}
	if client.Downloaded(Udughul) {
		t.Error("partial extraction left behind")
	}
}

func TestUnzip_RejectsTraversal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	if err := os.WriteFile(src, zipBytes(t, map[string]string{"../escape.txt": "x"}), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := unzip(src, filepath.Join(dir, "out")); !errors.Is(err, errZipSlip) {
		t.Errorf("unzip = %v, want errZipSlip", err)
	}
}

func TestClient_DownloadAll(t *testing.T) {
	t.Parallel()
	archive := zipBytes(t, map[string]string{"x/catalogue.json": `{"members": {}}`})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	cache := t.TempDir()
	client := NewClient(server.URL, cache, 5*time.Second)
	client.Workers = 2

	var done atomic.Int32
	corpora := []Corpus{AdminED12, AdminED3a, Liturgies}
	err := client.DownloadAll(context.Background(), corpora, func(Corpus, bool) { done.Add(1) })
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if int(done.Load()) != len(corpora) {
		t.Errorf("progress called %d times, want %d", done.Load(), len(corpora))
	}
	for _, c := range corpora {
		if !client.Downloaded(c) {
			t.Errorf("%s not downloaded", c)
		}
	}
}

func TestClient_DownloadSignList(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"sl:signlist": {}}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "osl.json")
	client := NewClient(server.URL, t.TempDir(), 5*time.Second)
	for i := 0; i < 2; i++ {
		if _, err := client.DownloadSignList(context.Background(), server.URL+"/sl.json", path); err != nil {
			t.Fatalf("DownloadSignList: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.Contains(data, []byte("sl:signlist")) {
		t.Errorf("sign list = %q, %v", data, err)
	}
}
