package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/publish"
	"github.com/julianknutsen/cuneiset/internal/style"
)

func newPublishCmd(stdout, stderr io.Writer) *cobra.Command {
	var bucket, prefix string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the final dataset files to S3",
		Long: `Upload train.csv, validation.csv, test.csv, 5_with_glyphs.csv, the split
summary and the run manifest to an S3 bucket. Every file recorded in the
manifest is verified first; nothing is uploaded if one was modified.

Credentials come from the usual AWS environment, profile or instance role.
Set publish.endpoint to target an S3-compatible store.

Examples:
  cuneiset publish --bucket my-datasets
  cuneiset publish --bucket my-datasets --prefix cuneiset/v2 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, stdout, stderr, bucket, prefix, dryRun)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket (overrides publish.bucket)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (overrides publish.prefix)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be uploaded without uploading")

	return cmd
}

func runPublish(cmd *cobra.Command, stdout, stderr io.Writer, bucket, prefix string, dryRun bool) error {
	env, err := loadEnv(cmd, stderr)
	if err != nil {
		return err
	}
	pc := env.cfg.Publish
	if bucket != "" {
		pc.Bucket = bucket
	}
	if prefix != "" {
		pc.Prefix = prefix
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	var up publish.Uploader
	if !dryRun {
		client, err := publish.NewClient(ctx, pc)
		if err != nil {
			return err
		}
		up = client
	}

	sp := style.StartSpinner(stderr, "Publishing dataset...")
	res, err := publish.Run(ctx, up, publish.Options{
		Dir:     env.cfg.OutputDir,
		Bucket:  pc.Bucket,
		Prefix:  pc.Prefix,
		Workers: env.cfg.DownloadWorkers,
		DryRun:  dryRun,
		Logger:  env.log,
		Metrics: env.metrics,
	})
	sp.Stop()
	if err != nil {
		return hintWrap(err)
	}

	verb := "uploaded"
	if res.DryRun {
		verb = "would upload"
	}
	for _, o := range res.Objects {
		fmt.Fprintf(stdout, "  %s %s %s\n", style.Success.Render(style.IconPass), o.URI(res.Bucket), style.Dim.Render(fmt.Sprintf("(%d bytes)", o.Bytes)))
	}
	for _, name := range res.Missing {
		fmt.Fprintf(stdout, "  %s %s: not found\n", style.Warning.Render(style.IconWarn), name)
	}
	fmt.Fprintf(stdout, "\n%s %s\n", verb, plural(len(res.Objects), "file"))
	return nil
}
