// Package bundler defines the contract with the native bundler. The build
// pipeline treats bundling as opaque: entries and options in, artifacts and
// diagnostics out. Bundling and minification internals live on the other
// side of this interface.
package bundler

import (
	"context"
	"fmt"
	"strings"
)

// ArtifactKind distinguishes requested entry outputs from generated chunks.
type ArtifactKind string

const (
	KindEntry ArtifactKind = "entry"
	KindChunk ArtifactKind = "chunk"
)

// Artifact describes one produced output file.
type Artifact struct {
	Path string
	Kind ArtifactKind
}

// Diagnostic is one bundler message, optionally carrying a source location.
type Diagnostic struct {
	Message string
	File    string
	Line    int
	Column  int
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}

// Request is one bundling invocation.
type Request struct {
	// Entries maps entry names to absolute source paths. Entry names become
	// output file stems, so uniqueness guarantees disjoint output paths.
	Entries map[string]string
	OutDir  string
	Format  string // esm | cjs
	Target  string // node | browser | bun
	// Externals are specifiers left as imports rather than inlined.
	Externals []string
	// Naming is the output naming template; empty uses the bundler default.
	Naming string
}

// Result is the bundler's answer: produced artifacts plus any non-fatal
// diagnostics.
type Result struct {
	Artifacts   []Artifact
	Diagnostics []Diagnostic
}

// Bundler is the native bundler collaborator.
type Bundler interface {
	Bundle(ctx context.Context, req Request) (*Result, error)
}

// AggregateError is a failed bundle carrying every sub-diagnostic, so the
// user sees the whole picture instead of the first failure.
type AggregateError struct {
	Diagnostics []Diagnostic
}

func (e *AggregateError) Error() string {
	if len(e.Diagnostics) == 0 {
		return "bundling failed"
	}
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("bundling failed with %d error(s): %s", len(e.Diagnostics), strings.Join(msgs, "; "))
}
