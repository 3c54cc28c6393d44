package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rescale/msibuild/internal/versioning"
)

// Sentinel errors, one per failure kind. Every *Error matches exactly one of
// them (or versioning.ErrInvalidFormat) through errors.Is.
var (
	ErrToolchainMissing = errors.New("toolchain missing")
	ErrSourceMissing    = errors.New("source definition missing")
	ErrCleanupFailed    = errors.New("cleanup failed")
	ErrCompileFailed    = errors.New("compile failed")
	ErrLinkFailed       = errors.New("link failed")
)

// Kind classifies why a run was aborted.
type Kind int

const (
	KindToolchainMissing Kind = iota
	KindInvalidVersion
	KindSourceMissing
	KindCleanupFailed
	KindCompileFailed
	KindLinkFailed
)

func (k Kind) String() string {
	switch k {
	case KindToolchainMissing:
		return "ToolchainMissing"
	case KindInvalidVersion:
		return "InvalidFormat"
	case KindSourceMissing:
		return "SourceMissing"
	case KindCleanupFailed:
		return "CleanupFailed"
	case KindCompileFailed:
		return "CompileFailed"
	case KindLinkFailed:
		return "LinkFailed"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindToolchainMissing:
		return ErrToolchainMissing
	case KindInvalidVersion:
		return versioning.ErrInvalidFormat
	case KindSourceMissing:
		return ErrSourceMissing
	case KindCleanupFailed:
		return ErrCleanupFailed
	case KindCompileFailed:
		return ErrCompileFailed
	default:
		return ErrLinkFailed
	}
}

// Error is the payload of the Aborted state.
type Error struct {
	Kind Kind
	// State is where the run was when it aborted.
	State State
	// Tool is the configured tool name for tool failures and precheck.
	Tool string
	// ExitCode is the tool's exit status, or -1 if it never exited normally.
	ExitCode int
	// Output is what the failed tool printed.
	Output string
	// TimedOut is set when the tool was killed by the per-tool timeout.
	TimedOut bool
	// Hint tells the user how to fix the problem, when there is a known fix.
	Hint string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Kind == KindInvalidVersion && e.Err != nil {
		return e.Err.Error()
	}

	var b strings.Builder
	b.WriteString(e.Kind.sentinel().Error())

	switch e.Kind {
	case KindCompileFailed, KindLinkFailed:
		switch {
		case e.TimedOut:
			fmt.Fprintf(&b, ": %s timed out", e.Tool)
		case e.Err != nil:
			fmt.Fprintf(&b, ": %s: %v", e.Tool, e.Err)
		default:
			fmt.Fprintf(&b, ": %s exited with status %d", e.Tool, e.ExitCode)
		}
	default:
		if e.Err != nil {
			fmt.Fprintf(&b, ": %v", e.Err)
		}
	}

	if e.Hint != "" {
		fmt.Fprintf(&b, " (%s)", e.Hint)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// AsError extracts the pipeline error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
