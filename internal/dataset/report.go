package dataset

import (
	"context"
	"log/slog"
)

// Report is a titled value histogram a stage produces for review, such as
// the period counts after collation or the most frequent unknown readings.
type Report struct {
	Title  string  `json:"title"`
	Counts []Count `json:"counts"`
}

// Total returns the sum of the counts.
func (r Report) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c.N
	}
	return n
}

// LogValue renders the histogram as a group of value=count attributes.
func (r Report) LogValue() slog.Value {
	attrs := make([]slog.Attr, len(r.Counts))
	for i, c := range r.Counts {
		key := c.Value
		if key == "" {
			key = "(empty)"
		}
		attrs[i] = slog.Int(key, c.N)
	}
	return slog.GroupValue(attrs...)
}

// LogReports writes each non-empty report at INFO.
func LogReports(ctx context.Context, log *slog.Logger, reports []Report) {
	for _, r := range reports {
		if len(r.Counts) == 0 {
			continue
		}
		log.InfoContext(ctx, r.Title, "counts", r)
	}
}
