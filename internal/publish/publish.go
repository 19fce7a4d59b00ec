// Package publish uploads a finished dataset to an S3 bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/pipeline"
)

// Stage labels publish metrics and logs.
const Stage = "publish"

var (
	// ErrNoBucket is returned when no bucket is configured.
	ErrNoBucket = errors.New("no publish bucket configured")
	// ErrModified is returned when a file no longer matches the run manifest.
	ErrModified = errors.New("dataset files differ from the run manifest")
	// ErrNothing is returned when none of the dataset files exist.
	ErrNothing = errors.New("no dataset files to publish")
)

// Uploader puts one object. *s3.Client satisfies it.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client from the default AWS credential chain.
// A custom endpoint switches to path-style addressing for MinIO and
// similar stores.
func NewClient(ctx context.Context, cfg config.PublishConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

// Options configures a publish.
type Options struct {
	Dir     string
	Bucket  string
	Prefix  string
	Files   []string // relative to Dir; nil means pipeline.DatasetFiles
	Workers int
	DryRun  bool
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Object is one uploaded file.
type Object struct {
	Key   string
	Path  string
	Bytes int64
	Hash  string
}

// URI returns the s3:// location of o in bucket.
func (o Object) URI(bucket string) string { return "s3://" + bucket + "/" + o.Key }

// Result summarises a publish.
type Result struct {
	Bucket  string
	RunID   string
	Objects []Object
	Missing []string
	DryRun  bool
}

// Run uploads the dataset files found in opts.Dir. When a run manifest is
// present every recorded output is verified first and nothing is uploaded
// if any file was modified.
func Run(ctx context.Context, up Uploader, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("stage", Stage)

	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}
	files := opts.Files
	if files == nil {
		files = pipeline.DatasetFiles()
	}

	res := &Result{Bucket: opts.Bucket, DryRun: opts.DryRun}
	metadata := map[string]string{}
	m, err := pipeline.ReadManifest(opts.Dir)
	switch {
	case err == nil:
		res.RunID = m.RunID
		metadata["run-id"] = m.RunID
		if err := verify(opts.Dir, m); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
		log.WarnContext(ctx, "no run manifest; publishing unverified files")
	default:
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	for _, name := range files {
		p := filepath.Join(opts.Dir, filepath.FromSlash(name))
		hash, n, err := pipeline.HashFile(p)
		if errors.Is(err, os.ErrNotExist) {
			res.Missing = append(res.Missing, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", name, err)
		}
		res.Objects = append(res.Objects, Object{
			Key:   path.Join(opts.Prefix, name),
			Path:  p,
			Bytes: n,
			Hash:  hash,
		})
	}
	if len(res.Objects) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNothing, opts.Dir)
	}
	for _, name := range res.Missing {
		log.WarnContext(ctx, "dataset file missing", "file", name)
	}
	if opts.DryRun {
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for _, o := range res.Objects {
		g.Go(func() error {
			if err := put(gctx, up, opts.Bucket, o, metadata); err != nil {
				return fmt.Errorf("uploading %s: %w", o.Key, err)
			}
			log.InfoContext(gctx, "uploaded", "uri", o.URI(opts.Bucket), "bytes", o.Bytes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	opts.Metrics.Records(Stage, metrics.OutcomeOut, len(res.Objects))
	return res, nil
}

func verify(dir string, m *pipeline.Manifest) error {
	results, err := pipeline.Verify(dir, m)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Match && !r.Missing {
			return fmt.Errorf("%w: %s", ErrModified, r.Path)
		}
	}
	return nil
}

func put(ctx context.Context, up Uploader, bucket string, o Object, metadata map[string]string) error {
	f, err := os.Open(o.Path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // read-only

	meta := map[string]string{"sha256": o.Hash}
	for k, v := range metadata {
		meta[k] = v
	}
	_, err = up.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(o.Key),
		Body:          f,
		ContentLength: aws.Int64(o.Bytes),
		ContentType:   aws.String(contentType(o.Key)),
		Metadata:      meta,
	})
	return err
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
