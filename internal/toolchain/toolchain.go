// Package toolchain resolves the external packaging tools and runs them as
// child processes, capturing their output and exit status.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// ErrNotFound indicates a tool could not be resolved on PATH.
var ErrNotFound = errors.New("tool not found")

// LookupFunc resolves a tool name to an executable path. exec.LookPath is the
// production implementation; tests substitute their own.
type LookupFunc func(file string) (string, error)

// Resolve returns the executable for name. Names containing a path separator
// are checked directly, bare names are searched on PATH.
func Resolve(name string, lookup LookupFunc) (string, error) {
	if lookup == nil {
		lookup = exec.LookPath
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty tool name", ErrNotFound)
	}

	path, err := lookup(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}
	return path, nil
}

// Invocation is one run of an external tool.
type Invocation struct {
	// Tool is the display name ("compiler", "linker").
	Tool string
	// Path is the executable to start.
	Path string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// CommandLine renders the invocation for logs and dry runs.
func (i Invocation) CommandLine() string {
	parts := make([]string, 0, len(i.Args)+1)
	parts = append(parts, quote(i.Path))
	for _, a := range i.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// Result is what a finished tool run left behind.
type Result struct {
	ExitCode int
	// Output is stdout and stderr interleaved as the tool wrote them.
	Output   []byte
	Duration time.Duration
}

// Success reports whether the tool exited with status 0.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// Runner starts a tool and waits for it to exit.
//
// A non-zero exit status is not an error: it is reported in Result.ExitCode.
// Run returns an error only when the process could not be started or was
// stopped because ctx ended; the partial Result is still returned in that case.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct {
	// Stream, if set, receives tool output as it is produced.
	Stream io.Writer
}

// NewExecRunner creates a runner that optionally echoes tool output to stream.
func NewExecRunner(stream io.Writer) *ExecRunner {
	return &ExecRunner{Stream: stream}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	// Don't wait forever on grandchildren holding the output pipe after a kill.
	cmd.WaitDelay = 5 * time.Second

	var output bytes.Buffer
	var w io.Writer = &output
	if r.Stream != nil {
		w = io.MultiWriter(&output, r.Stream)
	}
	cmd.Stdout = w
	cmd.Stderr = w

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Output:   output.Bytes(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, fmt.Errorf("%s stopped: %w", inv.Tool, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("failed to start %s: %w", inv.Tool, err)
	}

	return res, nil
}
