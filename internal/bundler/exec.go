package bundler

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ExecBundler shells out to the bun binary. Stderr is streamed line by line
// into the log while the process runs; diagnostics are parsed from the same
// stream after exit.
type ExecBundler struct {
	// Binary overrides the bundler executable; empty means "bun".
	Binary string
}

func (b *ExecBundler) binary() string {
	if b.Binary != "" {
		return b.Binary
	}
	return "bun"
}

// Bundle runs one bundler invocation and blocks until completion.
func (b *ExecBundler) Bundle(ctx context.Context, req Request) (*Result, error) {
	args := []string{"build"}

	names := make([]string, 0, len(req.Entries))
	for name := range req.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, req.Entries[name])
	}

	args = append(args, "--outdir", req.OutDir)
	if req.Format != "" {
		args = append(args, "--format", req.Format)
	}
	if req.Target != "" {
		args = append(args, "--target", req.Target)
	}
	for _, ext := range req.Externals {
		args = append(args, "--external", ext)
	}
	if req.Naming != "" {
		args = append(args, "--entry-naming", req.Naming)
	}

	cmd := exec.CommandContext(ctx, b.binary(), args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching bundler stderr: %w", err)
	}
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	slog.Debug("Invoking bundler", "binary", b.binary(), "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting bundler: %w", err)
	}

	// Incremental attachment: relay each stderr line as it arrives instead
	// of buffering the whole stream.
	var stderrLines []string
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		stderrLines = append(stderrLines, line)
		slog.Debug("bundler", "line", line)
	}

	runErr := cmd.Wait()
	diags := parseDiagnostics(stderrLines)

	if runErr != nil {
		if len(diags) == 0 {
			diags = []Diagnostic{{Message: runErr.Error()}}
		}
		return nil, &AggregateError{Diagnostics: diags}
	}

	res := &Result{Diagnostics: diags}
	for _, name := range names {
		stem := name
		if req.Naming == "" {
			stem = strings.TrimSuffix(filepath.Base(req.Entries[name]), filepath.Ext(req.Entries[name]))
		}
		res.Artifacts = append(res.Artifacts, Artifact{
			Path: filepath.Join(req.OutDir, stem+".js"),
			Kind: KindEntry,
		})
	}
	res.Artifacts = append(res.Artifacts, parseChunkArtifacts(&stdout, req.OutDir)...)
	return res, nil
}

// diagRe matches "error: message" lines with an optional trailing
// "    at file:line:col" location emitted by the bundler.
var (
	diagRe = regexp.MustCompile(`^(?:error|warn(?:ing)?):\s*(.+)$`)
	locRe  = regexp.MustCompile(`^\s+at\s+(.+?):(\d+):(\d+)\s*$`)
)

func parseDiagnostics(lines []string) []Diagnostic {
	var diags []Diagnostic
	for _, line := range lines {
		if m := diagRe.FindStringSubmatch(line); m != nil {
			diags = append(diags, Diagnostic{Message: m[1]})
			continue
		}
		if m := locRe.FindStringSubmatch(line); m != nil && len(diags) > 0 {
			last := &diags[len(diags)-1]
			if last.File == "" {
				last.File = m[1]
				last.Line, _ = strconv.Atoi(m[2])
				last.Column, _ = strconv.Atoi(m[3])
			}
		}
	}
	return diags
}

// parseChunkArtifacts reads the bundler's stdout listing for generated chunk
// files (lines like "  chunk-a1b2c3.js  12.4 KB").
func parseChunkArtifacts(r io.Reader, outDir string) []Artifact {
	var artifacts []Artifact
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if strings.HasPrefix(name, "chunk-") && strings.HasSuffix(name, ".js") {
			artifacts = append(artifacts, Artifact{Path: filepath.Join(outDir, name), Kind: KindChunk})
		}
	}
	return artifacts
}
