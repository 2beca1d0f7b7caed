package build

import (
	"context"
	"fmt"
)

// Stage is a discrete unit of work in one build mode pass.
type Stage func(ctx context.Context, bc *Context) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in pipeline order.
const (
	StageSetup       StageName = "setup"
	StageDocLint     StageName = "doc_lint"
	StageCompile     StageName = "compile"
	StageTraceDecls  StageName = "trace_declarations"
	StageEmitDecls   StageName = "emit_declarations"
	StageRollupDecls StageName = "rollup_declarations"
	StageCopyAssets  StageName = "copy_assets"
	StageTransform   StageName = "transform_hook"
	StageVirtual     StageName = "virtual_entries"
	StageWriteMeta   StageName = "write_metadata"
	StageLocalExport StageName = "local_export"
)

// StageDef pairs a stage with its name for the runner.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Mode must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
	StageResultSkipped  StageResult = "skipped"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

// NewWarnStageError creates a new warning stage error.
func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

// NewCanceledStageError creates a cancellation stage error.
func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// skipError signals a stage that decided not to run; the runner records a
// skip instead of a success.
type skipError struct{ reason string }

func (e skipError) Error() string { return "stage skipped: " + e.reason }

// Skip returns an error value signalling the stage was deliberately skipped.
func Skip(reason string) error { return skipError{reason: reason} }
