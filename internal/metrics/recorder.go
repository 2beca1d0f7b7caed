// Package metrics provides observability hooks for build metrics using the
// Null Object pattern: components take a Recorder, the default NoopRecorder
// costs nothing, and a Prometheus implementation activates on demand.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
	ResultSkipped  ResultLabel = "skipped"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(mode, stage string, d time.Duration)
	ObserveBuildDuration(mode string, d time.Duration)
	IncStageResult(mode, stage string, result ResultLabel)
	IncBuildOutcome(mode, outcome string) // outcome: success|failed
	IncEntryRollup(success bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration)        {}
func (NoopRecorder) IncStageResult(string, string, ResultLabel)        {}
func (NoopRecorder) IncBuildOutcome(string, string)                    {}
func (NoopRecorder) IncEntryRollup(bool)                               {}
