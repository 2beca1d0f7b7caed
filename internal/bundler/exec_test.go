package bundler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDiagnostics(t *testing.T) {
	lines := []string{
		"bundling src/index.ts",
		`error: Could not resolve "./missing"`,
		"    at src/index.ts:3:21",
		"warn: large bundle",
	}
	diags := parseDiagnostics(lines)
	require.Len(t, diags, 2)

	assert.Equal(t, `Could not resolve "./missing"`, diags[0].Message)
	assert.Equal(t, "src/index.ts", diags[0].File)
	assert.Equal(t, 3, diags[0].Line)
	assert.Equal(t, 21, diags[0].Column)

	assert.Equal(t, "large bundle", diags[1].Message)
	assert.Empty(t, diags[1].File)
}

func TestParseChunkArtifacts(t *testing.T) {
	out := strings.NewReader(`
  index.js        4.2 KB
  chunk-a1b2c3.js 12.4 KB
`)
	artifacts := parseChunkArtifacts(out, "/dist")
	require.Len(t, artifacts, 1)
	assert.Equal(t, "/dist/chunk-a1b2c3.js", artifacts[0].Path)
	assert.Equal(t, KindChunk, artifacts[0].Kind)
}

func TestAggregateErrorMessage(t *testing.T) {
	err := &AggregateError{Diagnostics: []Diagnostic{
		{Message: "first", File: "a.ts", Line: 1, Column: 2},
		{Message: "second"},
	}}
	msg := err.Error()
	assert.Contains(t, msg, "2 error(s)")
	assert.Contains(t, msg, "a.ts:1:2: first")
	assert.Contains(t, msg, "second")
}
