// Package metrics provides Prometheus metrics for the question answering engine
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels for StageDuration
const (
	StageExtract   = "extract"
	StageChunk     = "chunk"
	StageEmbed     = "embed"
	StageSearch    = "search"
	StageSynthesis = "synthesis"
)

// Metrics holds all Prometheus metrics for the engine
type Metrics struct {
	Registry *prometheus.Registry

	// Indexing metrics
	IndexBuildsTotal   *prometheus.CounterVec
	ChunksIndexedTotal prometheus.Counter
	SessionsIndexed    prometheus.Gauge

	// Query metrics
	QueriesTotal *prometheus.CounterVec
	ErrorsTotal  *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		IndexBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfqa_index_builds_total",
				Help: "Total number of index builds",
			},
			[]string{"status"},
		),
		ChunksIndexedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pdfqa_chunks_indexed_total",
				Help: "Total number of chunks embedded and indexed",
			},
		),
		SessionsIndexed: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pdfqa_sessions_indexed",
				Help: "Number of sessions currently holding an index",
			},
		),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfqa_queries_total",
				Help: "Total number of questions asked",
			},
			[]string{"status"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pdfqa_errors_total",
				Help: "Total number of failures by kind",
			},
			[]string{"kind"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pdfqa_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
	}
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordIndexBuild records the outcome of an index build
func (m *Metrics) RecordIndexBuild(chunks int, errKind string) {
	if errKind != "" {
		m.IndexBuildsTotal.WithLabelValues("error").Inc()
		m.ErrorsTotal.WithLabelValues(errKind).Inc()
		return
	}
	m.IndexBuildsTotal.WithLabelValues("success").Inc()
	m.ChunksIndexedTotal.Add(float64(chunks))
}

// RecordQuery records the outcome of a question
func (m *Metrics) RecordQuery(errKind string) {
	if errKind != "" {
		m.QueriesTotal.WithLabelValues("error").Inc()
		m.ErrorsTotal.WithLabelValues(errKind).Inc()
		return
	}
	m.QueriesTotal.WithLabelValues("success").Inc()
}
