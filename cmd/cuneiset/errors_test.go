package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/publish"
	"github.com/julianknutsen/cuneiset/internal/signlist"
)

func TestHintedError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("something failed")
	h := &HintedError{Err: inner, Hint: "try again"}
	if !errors.Is(h, inner) {
		t.Error("HintedError should unwrap to inner error")
	}
}

func TestHintedError_ErrorString(t *testing.T) {
	inner := fmt.Errorf("boom")
	h := &HintedError{Err: inner, Hint: "fix it"}
	if h.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", h.Error(), "boom")
	}
}

func TestHintWrap_Nil(t *testing.T) {
	if got := hintWrap(nil); got != nil {
		t.Errorf("hintWrap(nil) = %v, want nil", got)
	}
}

func TestHintWrap_Known(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hint string
	}{
		{"not downloaded", fmt.Errorf("admin_ur3: %w", oracc.ErrNotDownloaded), "Run 'cuneiset download' to fetch the corpora."},
		{"no sign list", signlist.ErrNoSignList, "Run 'cuneiset lookups --download', or point sign_list_path at a local osl.json."},
		{"no bucket", publish.ErrNoBucket, "Set one with 'cuneiset config set publish.bucket <name>' or pass --bucket."},
		{"modified", publish.ErrModified, "Run 'cuneiset verify' to see which files changed, then re-run the pipeline."},
		{"invalid config", fmt.Errorf("%w: log.level", config.ErrInvalid), "Run 'cuneiset config path' to find the config file, or 'cuneiset doctor' to check your setup."},
		{"missing file", fmt.Errorf("opening: %w", os.ErrNotExist), "Run the earlier stages first, e.g. 'cuneiset run'."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hintWrap(tt.err)
			var h *HintedError
			if !errors.As(err, &h) {
				t.Fatal("expected HintedError")
			}
			if h.Hint != tt.hint {
				t.Errorf("unexpected hint: %s", h.Hint)
			}
			if !errors.Is(err, tt.err) {
				t.Error("should unwrap to the original error")
			}
		})
	}
}

func TestHintWrap_GenericError(t *testing.T) {
	orig := fmt.Errorf("disk full")
	err := hintWrap(orig)
	var h *HintedError
	if errors.As(err, &h) {
		t.Error("generic errors should not be wrapped")
	}
	if err != orig {
		t.Error("generic errors should pass through unchanged")
	}
}

func TestHintWrap_AlreadyHinted(t *testing.T) {
	h := &HintedError{Err: publish.ErrNoBucket, Hint: "custom"}
	err := hintWrap(h)
	var got *HintedError
	if !errors.As(err, &got) || got.Hint != "custom" {
		t.Errorf("hint was replaced: %v", err)
	}
}
