// # internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scriptbridge_parsing_seconds",
		Help:    "Time spent parsing a script file.",
		Buckets: prometheus.DefBuckets,
	})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scriptbridge_generation_seconds",
		Help:    "Time spent on high-level generation phases.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	ClassesResolved = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptbridge_classes_resolved_total",
		Help: "Number of script classes resolved in the last run.",
	})

	ProxiesEmitted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scriptbridge_proxies_emitted_total",
		Help: "Number of native proxy types emitted in the last run.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptbridge_diagnostics_total",
		Help: "Total diagnostics reported, by code.",
	}, []string{"code"})

	FilesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptbridge_files_written_total",
		Help: "Total generated files written to disk.",
	})

	FilesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptbridge_files_skipped_total",
		Help: "Total generated files skipped because the cache showed them current.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scriptbridge_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scriptbridge_runs_total",
		Help: "Total generation runs, by outcome.",
	}, []string{"outcome"})
)
