package build

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/savvy-web/bun-builder-sub000/internal/logfields"
	"github.com/savvy-web/bun-builder-sub000/internal/metrics"
)

// runStages executes stages in order, recording timing and stopping on the
// first fatal error. Warnings are recorded and the pipeline continues.
func runStages(ctx context.Context, bc *Context, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			bc.Recorder.IncStageResult(bc.Mode, string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bc)
		dur := time.Since(t0)
		bc.Recorder.ObserveStageDuration(bc.Mode, string(st.Name), dur)

		out := classifyStageResult(st.Name, err)
		bc.Recorder.IncStageResult(bc.Mode, string(st.Name), resultLabel(out.Result))

		switch out.Result {
		case StageResultSuccess:
			slog.Debug("Stage completed", logfields.BuildID(bc.BuildID), logfields.Mode(bc.Mode),
				logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
		case StageResultSkipped:
			slog.Debug("Stage skipped", logfields.BuildID(bc.BuildID), logfields.Mode(bc.Mode),
				logfields.Stage(string(st.Name)), "reason", err.Error())
		case StageResultWarning:
			bc.Warn(out.Error.Error())
			slog.Warn("Stage degraded", logfields.BuildID(bc.BuildID), logfields.Mode(bc.Mode),
				logfields.Stage(string(st.Name)), logfields.Error(out.Error.Err))
		}

		if out.Abort {
			slog.Error("Stage failed", logfields.BuildID(bc.BuildID), logfields.Mode(bc.Mode),
				logfields.Stage(string(st.Name)), logfields.Error(out.Error.Err))
			return out.Error
		}
	}
	return nil
}

// stageOutcome is the normalized result of stage execution.
type stageOutcome struct {
	Stage  StageName
	Error  *StageError
	Result StageResult
	Abort  bool
}

// classifyStageResult converts a raw error from a stage into a stageOutcome.
func classifyStageResult(stage StageName, err error) stageOutcome {
	if err == nil {
		return stageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var skip skipError
	if errors.As(err, &skip) {
		return stageOutcome{Stage: stage, Result: StageResultSkipped, Error: NewWarnStageError(stage, err)}
	}

	var se *StageError
	if !errors.As(err, &se) {
		// Raw errors are treated as fatal.
		se = NewFatalStageError(stage, err)
	}

	switch se.Kind {
	case StageErrorWarning:
		return stageOutcome{Stage: stage, Result: StageResultWarning, Error: se}
	case StageErrorCanceled:
		return stageOutcome{Stage: stage, Result: StageResultCanceled, Error: se, Abort: true}
	default:
		return stageOutcome{Stage: stage, Result: StageResultFatal, Error: se, Abort: true}
	}
}

func resultLabel(r StageResult) metrics.ResultLabel {
	switch r {
	case StageResultSuccess:
		return metrics.ResultSuccess
	case StageResultWarning:
		return metrics.ResultWarning
	case StageResultCanceled:
		return metrics.ResultCanceled
	case StageResultSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultFatal
	}
}
