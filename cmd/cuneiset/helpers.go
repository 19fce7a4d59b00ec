package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
)

// appEnv is what most commands need: the resolved configuration, a logger
// and a metrics registry.
type appEnv struct {
	cfg     *config.Config
	cfgPath string
	log     *slog.Logger
	metrics *metrics.Metrics
}

// configPath returns the --config flag or the default location.
func configPath(cmd *cobra.Command) (path string, explicit bool) {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, true
	}
	return config.DefaultPath(), false
}

// loadConfig loads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, explicit := configPath(cmd)
	load := path
	if !explicit {
		load = ""
	}
	cfg, err := config.Load(load)
	if err != nil {
		return nil, path, hintWrap(err)
	}
	if v, _ := cmd.Flags().GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, path, hintWrap(err)
	}
	return cfg, path, nil
}

// loadEnv loads the configuration and builds the logger, writing logs to
// stderr.
func loadEnv(cmd *cobra.Command, stderr io.Writer) (*appEnv, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	if err := initSentry(cfg); err != nil {
		log.Warn("error reporting disabled", "error", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &appEnv{cfg: cfg, cfgPath: path, log: log, metrics: metrics.New()}, nil
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// plural returns "n word" with a naive plural suffix.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
