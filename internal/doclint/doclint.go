// Package doclint integrates the external documentation-comment lint engine.
// The engine owns the doc-comment grammar; this package owns invoking it and
// shaping its findings for policy handling.
package doclint

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Finding is one lint result for one file.
type Finding struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	RuleID   string `json:"ruleId"`
	Severity string `json:"severity"` // warning | error
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d:%d: %s (%s)", f.File, f.Line, f.Column, f.Message, f.RuleID)
}

// Result is the engine's aggregated output for one run.
type Result struct {
	Findings []Finding
}

// HasErrors reports whether any error-severity finding exists.
func (r *Result) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == "error" {
			return true
		}
	}
	return false
}

// Linter is the documentation lint capability. A NotInstalled variant keeps
// "engine absent" a typed branch rather than an error path.
type Linter interface {
	Installed() bool
	Lint(ctx context.Context, files []string, ruleConfig string) (*Result, error)
}

// NewLinter probes for the lint engine binary and returns the matching
// variant.
func NewLinter(binary string) Linter {
	if binary == "" {
		binary = "tsdoc-lint"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return notInstalled{}
	}
	return &execLinter{binary: binary}
}

type notInstalled struct{}

func (notInstalled) Installed() bool { return false }
func (notInstalled) Lint(context.Context, []string, string) (*Result, error) {
	return &Result{}, nil
}

type execLinter struct {
	binary string
}

func (l *execLinter) Installed() bool { return true }

// Lint invokes the engine over the file list and decodes its JSON-lines
// findings. The engine's exit code is ignored: findings drive the verdict,
// and the caller's policy decides what a finding means.
func (l *execLinter) Lint(ctx context.Context, files []string, ruleConfig string) (*Result, error) {
	args := []string{"--format", "json"}
	if ruleConfig != "" {
		args = append(args, "--config", ruleConfig)
	}
	args = append(args, files...)

	cmd := exec.CommandContext(ctx, l.binary, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching lint stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting lint engine: %w", err)
	}

	res := &Result{}
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var f Finding
		if json.Unmarshal([]byte(line), &f) == nil && f.Message != "" {
			res.Findings = append(res.Findings, f)
		}
	}

	_ = cmd.Wait()
	return res, nil
}
