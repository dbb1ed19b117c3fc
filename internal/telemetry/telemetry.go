// Package telemetry records run metrics and writes them in the prometheus text format.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "gitreport"

// Metrics holds the instruments for one analysis run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	commitsWalked   prometheus.Counter
	commitsRecorded prometheus.Counter
	filesClassified *prometheus.CounterVec
	warnings        *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	runDuration     prometheus.Gauge
}

// New creates the instruments on an independent registry, so that several runs
// in one process never collide on collector registration.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commitsWalked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "commits_walked_total",
			Help: "Commits yielded by the history walker.",
		}),
		commitsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "commits_recorded_total",
			Help: "Commits whose changes reached the aggregator.",
		}),
		filesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_classified_total",
			Help: "File changes classified, by language.",
		}, []string{"language"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "warnings_total",
			Help: "Non-fatal report warnings, by kind.",
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_lookups_total",
			Help: "Report cache lookups, by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help: "Wall time of the last analysis run.",
		}),
	}
	m.registry.MustRegister(
		m.commitsWalked,
		m.commitsRecorded,
		m.filesClassified,
		m.warnings,
		m.cacheLookups,
		m.runDuration,
	)
	return m
}

// CommitWalked counts one commit yielded by the walker.
func (m *Metrics) CommitWalked() {
	if m != nil {
		m.commitsWalked.Inc()
	}
}

// CommitRecorded counts one commit recorded by a worker.
func (m *Metrics) CommitRecorded() {
	if m != nil {
		m.commitsRecorded.Inc()
	}
}

// FileClassified counts one classified file change.
func (m *Metrics) FileClassified(language string) {
	if m != nil {
		m.filesClassified.WithLabelValues(language).Inc()
	}
}

// Warning counts one report warning.
func (m *Metrics) Warning(kind string) {
	if m != nil {
		m.warnings.WithLabelValues(kind).Inc()
	}
}

// CacheLookup counts a report cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RunFinished sets the run duration gauge.
func (m *Metrics) RunFinished(d time.Duration) {
	if m != nil {
		m.runDuration.Set(d.Seconds())
	}
}

// Gather returns the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	if m == nil {
		return nil, nil
	}
	return m.registry.Gather()
}

// WriteTextfile writes every metric to path in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
