// Package declarations generates type declarations: an external compiler
// emits per-file declarations, then an external rollup tool consolidates
// them per export entry, with a raw-copy fallback when rollup is unavailable
// or fails everywhere.
package declarations

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Compiler invokes the external type compiler as a subprocess. The contract
// is exit code plus raw output text; type-checking semantics stay on the
// other side.
type Compiler struct {
	// Binary overrides the compiler executable; empty means "tsc".
	Binary string
}

func (c *Compiler) binary() string {
	if c.Binary != "" {
		return c.Binary
	}
	return "tsc"
}

// EmitDeclarations runs the compiler in declarations-only mode, writing
// per-file declarations under declDir. Output is streamed into the log line
// by line while the process runs; on a non-zero exit the tail of the output
// is returned in the error.
func (c *Compiler) EmitDeclarations(ctx context.Context, tsconfigPath, declDir string) error {
	args := []string{
		"--project", tsconfigPath,
		"--emitDeclarationOnly",
		"--declaration",
		"--declarationDir", declDir,
		"--noEmit", "false",
	}

	cmd := exec.CommandContext(ctx, c.binary(), args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attaching compiler stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	slog.Debug("Invoking type compiler", "binary", c.binary(), "tsconfig", tsconfigPath, "declDir", declDir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting type compiler: %w", err)
	}

	var tail []string
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		slog.Debug("tsc", "line", line)
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("type compiler failed: %w\n%s", err, strings.Join(tail, "\n"))
	}
	return nil
}
