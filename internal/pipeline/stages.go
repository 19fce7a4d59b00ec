// Package pipeline runs the dataset stages in order and records each run
// in a manifest.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names one step of the pipeline.
type Stage string

// Stages, in run order.
const (
	StageDownload Stage = "download"
	StageExtract  Stage = "extract"
	StageCollate  Stage = "collate"
	StageClean    Stage = "clean"
	StageSignList Stage = "signlist"
	StageGlyphs   Stage = "glyphs"
	StageSplit    Stage = "split"
)

var order = []Stage{
	StageDownload, StageExtract, StageCollate, StageClean,
	StageSignList, StageGlyphs, StageSplit,
}

// ErrUnknownStage is returned for a stage name that does not exist.
var ErrUnknownStage = errors.New("unknown stage")

// Stages returns every stage in run order.
func Stages() []Stage { return append([]Stage{}, order...) }

// StageNames returns the stage names in run order.
func StageNames() []string {
	out := make([]string, len(order))
	for i, s := range order {
		out[i] = string(s)
	}
	return out
}

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	for _, st := range order {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrUnknownStage, s, strings.Join(StageNames(), ", "))
}

func index(s Stage) int {
	for i, st := range order {
		if st == s {
			return i
		}
	}
	return -1
}

// Between returns the stages from..to inclusive. Empty bounds mean the
// first and last stage.
func Between(from, to Stage) ([]Stage, error) {
	lo, hi := 0, len(order)-1
	if from != "" {
		if lo = index(from); lo < 0 {
			return nil, fmt.Errorf("%w %q", ErrUnknownStage, from)
		}
	}
	if to != "" {
		if hi = index(to); hi < 0 {
			return nil, fmt.Errorf("%w %q", ErrUnknownStage, to)
		}
	}
	if lo > hi {
		return nil, fmt.Errorf("stage %s comes after %s", from, to)
	}
	return append([]Stage{}, order[lo:hi+1]...), nil
}
