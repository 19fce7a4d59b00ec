package oracc

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultSignListURL is the OSL sign list in JSON form.
const DefaultSignListURL = "https://oracc.museum.upenn.edu/osl/downloads/sl.json"

// DownloadError is returned when fetching an archive fails.
type DownloadError struct {
	Corpus Corpus
	URL    string
	Err    error
}

func (e *DownloadError) Error() string {
	name := string(e.Corpus)
	if name == "" {
		name = e.URL
	}
	return fmt.Sprintf("failed to download %s: %v", name, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractionError is returned when a downloaded archive cannot be unpacked.
type ExtractionError struct {
	Corpus Corpus
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Corpus, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Client downloads corpus archives into a local cache.
type Client struct {
	BaseURL  string
	CacheDir string
	HTTP     *http.Client
	Workers  int
	Logger   *slog.Logger
}

// NewClient creates a Client with a per-request timeout.
func NewClient(baseURL, cacheDir string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  baseURL,
		CacheDir: cacheDir,
		HTTP:     &http.Client{Timeout: timeout},
		Workers:  4,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// Downloaded reports whether the corpus has already been extracted.
func (c *Client) Downloaded(corpus Corpus) bool {
	info, err := os.Stat(corpus.Dir(c.CacheDir))
	return err == nil && info.IsDir()
}

// Download fetches and extracts one corpus. It returns false without
// touching the network when the corpus is already present.
func (c *Client) Download(ctx context.Context, corpus Corpus) (bool, error) {
	if c.Downloaded(corpus) {
		c.Logger.Info("corpus already downloaded", "corpus", corpus)
		return false, nil
	}
	root := filepath.Join(c.CacheDir, "corpora")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return false, fmt.Errorf("creating cache dir: %w", err)
	}

	url := corpus.URL(c.BaseURL)
	zipPath := filepath.Join(root, corpus.ArchiveName())
	c.Logger.Info("downloading corpus", "corpus", corpus, "url", url)
	if err := c.fetch(ctx, url, zipPath); err != nil {
		return false, &DownloadError{Corpus: corpus, URL: url, Err: err}
	}
	defer func() { _ = os.Remove(zipPath) }()

	dest := corpus.Dir(c.CacheDir)
	if err := unzip(zipPath, dest); err != nil {
		_ = os.RemoveAll(dest)
		return false, &ExtractionError{Corpus: corpus, Err: err}
	}
	c.Logger.Info("corpus extracted", "corpus", corpus, "dir", dest)
	return true, nil
}

// DownloadAll downloads the given corpora concurrently, at most Workers at a
// time. The first failure cancels the remaining downloads.
func (c *Client) DownloadAll(ctx context.Context, corpora []Corpus, progress func(Corpus, bool)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(c.Workers, 1))
	for _, corpus := range corpora {
		g.Go(func() error {
			fetched, err := c.Download(ctx, corpus)
			if err != nil {
				return err
			}
			if progress != nil {
				progress(corpus, fetched)
			}
			return nil
		})
	}
	return g.Wait()
}

// DownloadSignList fetches the OSL sign list to path unless it already exists.
func (c *Client) DownloadSignList(ctx context.Context, url, path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating sign list dir: %w", err)
	}
	c.Logger.Info("downloading sign list", "url", url)
	if err := c.fetch(ctx, url, path); err != nil {
		return false, &DownloadError{URL: url, Err: err}
	}
	return true, nil
}

// fetch streams url into path, writing through a temp file so a failed
// transfer never leaves a partial file behind.
func (c *Client) fetch(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("reading response: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

var errZipSlip = errors.New("archive entry escapes destination")

func unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = r.Close()
		return fmt.Errorf("%w: %v", errZipSlip, err)
	}
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	root := filepath.Clean(dest) + string(os.PathSeparator)
	for _, f := range r.File {
		target := filepath.Join(dest, f.Name)
		if !strings.HasPrefix(target+string(os.PathSeparator), root) {
			return fmt.Errorf("%w: %s", errZipSlip, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}
