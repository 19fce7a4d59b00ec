// Package metrics exposes pipeline counters on a dedicated Prometheus
// registry, either as a textfile after a batch run or over HTTP.
package metrics

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Record outcomes.
const (
	OutcomeIn      = "in"
	OutcomeOut     = "out"
	OutcomeSkipped = "skipped"
	OutcomeDropped = "dropped"
)

// Morpheme outcomes.
const (
	MorphemeConverted = "converted"
	MorphemeUnknown   = "unknown"
)

// Metrics holds every cuneiset collector. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	records       *prometheus.CounterVec
	morphemes     *prometheus.CounterVec
	stageDuration *prometheus.GaugeVec
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuneiset_records_total",
				Help: "Records seen per stage by outcome",
			},
			[]string{"stage", "outcome"},
		),
		morphemes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuneiset_morphemes_total",
				Help: "Morphemes mapped to glyphs by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cuneiset_stage_duration_seconds",
				Help: "Wall time of the last run of each stage",
			},
			[]string{"stage"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cuneiset_http_requests_total",
				Help: "HTTP API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		requestTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cuneiset_http_request_duration_seconds",
				Help:    "HTTP API request latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route"},
		),
	}
	m.Registry.MustRegister(m.records, m.morphemes, m.stageDuration, m.requests, m.requestTime)
	return m
}

// Records adds n records of the given outcome to a stage.
func (m *Metrics) Records(stage, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(stage, outcome).Add(float64(n))
}

// Morphemes adds n morphemes of the given outcome.
func (m *Metrics) Morphemes(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.morphemes.WithLabelValues(outcome).Add(float64(n))
}

// StageDuration records how long a stage took.
func (m *Metrics) StageDuration(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// Request records one served HTTP request.
func (m *Metrics) Request(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestTime.WithLabelValues(route).Observe(d.Seconds())
}

// WriteFile writes the registry in textfile-collector format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
