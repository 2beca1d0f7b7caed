package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration *prom.HistogramVec
	buildDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	entryRollups  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bunbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"mode", "stage"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "bunbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total duration of one build mode pass",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bunbuilder",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"mode", "stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bunbuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by mode and final status",
		}, []string{"mode", "outcome"}),
		entryRollups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "bunbuilder",
			Name:      "entry_rollups_total",
			Help:      "Per-entry declaration rollup results",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.entryRollups)
	return pr
}

func (pr *PrometheusRecorder) ObserveStageDuration(mode, stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(mode, stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveBuildDuration(mode string, d time.Duration) {
	pr.buildDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncStageResult(mode, stage string, result ResultLabel) {
	pr.stageResults.WithLabelValues(mode, stage, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncBuildOutcome(mode, outcome string) {
	pr.buildOutcome.WithLabelValues(mode, outcome).Inc()
}

func (pr *PrometheusRecorder) IncEntryRollup(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	pr.entryRollups.WithLabelValues(result).Inc()
}

// HTTPHandler serves the registry's metrics; used by watch mode.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
