package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savvy-web/bun-builder-sub000/internal/config"
	"github.com/savvy-web/bun-builder-sub000/internal/metrics"
)

func testContext(t *testing.T) *Context {
	t.Helper()
	cfg := &config.Config{}
	bc := newContext(config.ModeBundle, t.TempDir(), cfg, config.EnvInfo{}, config.DefaultPolicies(config.EnvInfo{}))
	bc.Recorder = metrics.NoopRecorder{}
	return bc
}

func TestRunStagesStopsOnFatal(t *testing.T) {
	bc := testContext(t)
	var ran []StageName

	stages := []StageDef{
		{Name: "one", Fn: func(context.Context, *Context) error {
			ran = append(ran, "one")
			return nil
		}},
		{Name: "two", Fn: func(context.Context, *Context) error {
			ran = append(ran, "two")
			return NewFatalStageError("two", errors.New("boom"))
		}},
		{Name: "three", Fn: func(context.Context, *Context) error {
			ran = append(ran, "three")
			return nil
		}},
	}

	err := runStages(context.Background(), bc, stages)
	require.Error(t, err)
	assert.Equal(t, []StageName{"one", "two"}, ran)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageName("two"), se.Stage)
}

func TestRunStagesContinuesPastWarning(t *testing.T) {
	bc := testContext(t)
	var ran []StageName

	stages := []StageDef{
		{Name: "warn", Fn: func(context.Context, *Context) error {
			ran = append(ran, "warn")
			return NewWarnStageError("warn", errors.New("degraded"))
		}},
		{Name: "next", Fn: func(context.Context, *Context) error {
			ran = append(ran, "next")
			return nil
		}},
	}

	err := runStages(context.Background(), bc, stages)
	require.NoError(t, err)
	assert.Equal(t, []StageName{"warn", "next"}, ran)
	require.Len(t, bc.Warnings, 1)
	assert.Contains(t, bc.Warnings[0], "degraded")
}

func TestRunStagesSkipIsNotFailure(t *testing.T) {
	bc := testContext(t)

	stages := []StageDef{
		{Name: "skipped", Fn: func(context.Context, *Context) error {
			return Skip("nothing to do")
		}},
	}

	require.NoError(t, runStages(context.Background(), bc, stages))
	assert.Empty(t, bc.Warnings)
}

func TestRunStagesRawErrorIsFatal(t *testing.T) {
	bc := testContext(t)

	stages := []StageDef{
		{Name: "raw", Fn: func(context.Context, *Context) error {
			return errors.New("plain failure")
		}},
	}

	err := runStages(context.Background(), bc, stages)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
}

func TestRunStagesHonorsCancellation(t *testing.T) {
	bc := testContext(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	stages := []StageDef{
		{Name: "never", Fn: func(context.Context, *Context) error {
			ran = true
			return nil
		}},
	}

	err := runStages(ctx, bc, stages)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.False(t, ran)
}

func TestRunStagesRecordsMetrics(t *testing.T) {
	bc := testContext(t)
	rec := &capturingRecorder{}
	bc.Recorder = rec

	stages := []StageDef{
		{Name: "ok", Fn: func(context.Context, *Context) error { return nil }},
		{Name: "warn", Fn: func(context.Context, *Context) error {
			return NewWarnStageError("warn", errors.New("x"))
		}},
	}

	require.NoError(t, runStages(context.Background(), bc, stages))
	assert.Equal(t, metrics.ResultSuccess, rec.results["ok"])
	assert.Equal(t, metrics.ResultWarning, rec.results["warn"])
	assert.Len(t, rec.durations, 2)
}

type capturingRecorder struct {
	metrics.NoopRecorder
	results   map[string]metrics.ResultLabel
	durations []time.Duration
}

func (r *capturingRecorder) ObserveStageDuration(mode, stage string, d time.Duration) {
	r.durations = append(r.durations, d)
}

func (r *capturingRecorder) IncStageResult(mode, stage string, result metrics.ResultLabel) {
	if r.results == nil {
		r.results = map[string]metrics.ResultLabel{}
	}
	r.results[stage] = result
}
