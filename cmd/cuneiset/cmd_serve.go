package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/api"
	"github.com/julianknutsen/cuneiset/internal/signlist"
)

func newServeCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve glyph lookups and the dataset files over HTTP",
		Long: `Start the HTTP API. It converts transliterations, answers reading and
glyph-name queries from the lookup tables, and serves the final dataset
files and run manifest from the output directory.

Endpoints:
  GET  /healthz
  GET  /metrics
  POST /api/convert
  GET  /api/readings/{reading}
  GET  /api/glyph-names/{name}
  GET  /api/manifest
  GET  /api/datasets
  GET  /datasets/{file}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, stdout, stderr)
		},
	}
	cmd.Flags().String("addr", "", "Address to listen on (overrides serve.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, stdout, stderr io.Writer) error {
	env, err := loadEnv(cmd, stderr)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		env.cfg.Serve.Addr = addr
	}
	lookups, err := signlist.LoadLookups(env.cfg.OutputDir)
	if err != nil {
		return hintWrap(err)
	}

	srv := &http.Server{
		Addr: env.cfg.Serve.Addr,
		Handler: api.New(api.Options{
			Lookups: lookups,
			DataDir: env.cfg.OutputDir,
			Logger:  env.log,
			Metrics: env.metrics,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	fmt.Fprintf(stdout, "cuneiset API listening on %s\n", env.cfg.Serve.Addr)

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	env.log.Info("shutting down", "timeout", env.cfg.Serve.ShutdownTimeout)
	shutdownCtx, stop := context.WithTimeout(context.Background(), env.cfg.Serve.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
