package declarations

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Diagnostic is one structured message from the rollup tool.
type Diagnostic struct {
	MessageID string `json:"messageId"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("[%s] %s", d.MessageID, d.Message)
	}
	return fmt.Sprintf("[%s] %s:%d:%d: %s", d.MessageID, d.File, d.Line, d.Column, d.Message)
}

// RollupRequest consolidates one entry's declaration dependencies into a
// single output file, optionally emitting an API document alongside.
type RollupRequest struct {
	DeclarationFile string
	TSConfigPath    string
	RollupOutPath   string
	APIDocPath      string
}

// RollupResult is the tool's verdict plus its structured diagnostics.
type RollupResult struct {
	Success     bool
	Diagnostics []Diagnostic
}

// Roller is the declaration-rollup capability. The NotInstalled variant
// makes "tool absent" a plain branch over a typed result instead of
// exception-driven control flow.
type Roller interface {
	Installed() bool
	Rollup(ctx context.Context, req RollupRequest) (*RollupResult, error)
}

// NewRoller probes for the rollup tool and returns the matching variant.
func NewRoller(binary string) Roller {
	if binary == "" {
		binary = "api-extractor"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return notInstalledRoller{}
	}
	return &ExecRoller{Binary: binary}
}

type notInstalledRoller struct{}

func (notInstalledRoller) Installed() bool { return false }
func (notInstalledRoller) Rollup(context.Context, RollupRequest) (*RollupResult, error) {
	return &RollupResult{Success: false}, nil
}

// ExecRoller shells out to the rollup tool, reading structured diagnostics
// as JSON lines from stdout.
type ExecRoller struct {
	Binary string
}

func (r *ExecRoller) Installed() bool { return true }

func (r *ExecRoller) Rollup(ctx context.Context, req RollupRequest) (*RollupResult, error) {
	args := []string{
		"run",
		"--main-entry-point", req.DeclarationFile,
		"--tsconfig", req.TSConfigPath,
		"--rollup-out", req.RollupOutPath,
		"--diagnostics-format", "json",
	}
	if req.APIDocPath != "" {
		args = append(args, "--api-doc-out", req.APIDocPath)
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching rollup stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting rollup tool: %w", err)
	}

	var diags []Diagnostic
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var d Diagnostic
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			slog.Debug("rollup", "line", line)
			continue
		}
		diags = append(diags, d)
	}

	runErr := cmd.Wait()
	return &RollupResult{Success: runErr == nil, Diagnostics: diags}, nil
}

// suppressedMessageIDs are known-noisy rollup diagnostics that never reach
// the user.
var suppressedMessageIDs = map[string]bool{
	"console-compiler-version-notice": true,
	"console-preamble":                true,
	"ae-unresolved-inheritdoc-base":   true,
}

// IsSuppressed reports whether a diagnostic is dropped on the floor.
func IsSuppressed(d Diagnostic) bool { return suppressedMessageIDs[d.MessageID] }

// IsForgottenExport reports whether a diagnostic flags a type referenced by
// the public surface but not exported from the entry point.
func IsForgottenExport(d Diagnostic) bool { return d.MessageID == "ae-forgotten-export" }

// IsDocWarning reports whether a diagnostic is a documentation-syntax
// warning from the doc-comment parser embedded in the rollup tool.
func IsDocWarning(d Diagnostic) bool { return strings.HasPrefix(d.MessageID, "tsdoc-") }
