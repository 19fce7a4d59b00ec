package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/publish"
	"github.com/julianknutsen/cuneiset/internal/signlist"
)

// HintedError wraps an error with a user-facing recovery hint.
type HintedError struct {
	Err  error
	Hint string
}

func (h *HintedError) Error() string { return h.Err.Error() }
func (h *HintedError) Unwrap() error { return h.Err }

// hintWrap attaches a recovery hint to the errors a user can fix.
func hintWrap(err error) error {
	if err == nil {
		return nil
	}
	var he *HintedError
	if errors.As(err, &he) {
		return err
	}
	var hint string
	switch {
	case errors.Is(err, config.ErrInvalid), errors.Is(err, config.ErrUnknownKey):
		hint = "Run 'cuneiset config path' to find the config file, or 'cuneiset doctor' to check your setup."
	case errors.Is(err, oracc.ErrNotDownloaded), errors.Is(err, oracc.ErrNoCatalogue):
		hint = "Run 'cuneiset download' to fetch the corpora."
	case errors.Is(err, signlist.ErrNoSignList):
		hint = "Run 'cuneiset lookups --download', or point sign_list_path at a local osl.json."
	case errors.Is(err, publish.ErrNoBucket):
		hint = "Set one with 'cuneiset config set publish.bucket <name>' or pass --bucket."
	case errors.Is(err, publish.ErrModified):
		hint = "Run 'cuneiset verify' to see which files changed, then re-run the pipeline."
	case errors.Is(err, os.ErrNotExist):
		hint = "Run the earlier stages first, e.g. 'cuneiset run'."
	default:
		return err
	}
	return &HintedError{Err: err, Hint: hint}
}

var sentryEnabled bool

// initSentry enables error reporting when a DSN is configured.
func initSentry(cfg *config.Config) error {
	if cfg.SentryDSN == "" || sentryEnabled {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:     cfg.SentryDSN,
		Release: "cuneiset@" + version,
	})
	if err != nil {
		return fmt.Errorf("initializing sentry: %w", err)
	}
	sentryEnabled = true
	return nil
}

func reportError(err error) {
	if sentryEnabled {
		sentry.CaptureException(err)
	}
}

func flushSentry() {
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}
