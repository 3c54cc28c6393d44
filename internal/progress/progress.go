// Package progress shows what the build pipeline is doing: an animated
// spinner on a terminal, plain lines everywhere else.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/rescale/msibuild/internal/constants"
)

// Reporter is the interface for reporting build progress.
type Reporter interface {
	Start(description string)
	SetDescription(desc string)
	Finish()
	Error(err error)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// New picks a spinner for terminals and a line reporter otherwise.
func New(w io.Writer) Reporter {
	if IsTerminal(w) {
		return NewSpinner(w)
	}
	return NewLineReporter(w)
}

// Spinner implements Reporter with an indeterminate progress bar.
type Spinner struct {
	w   io.Writer
	bar *progressbar.ProgressBar

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	if f, ok := w.(*os.File); ok {
		enableANSI(f)
	}
	return &Spinner{w: w}
}

// Start shows the spinner with description.
func (s *Spinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		s.bar.Describe(description)
		return
	}

	s.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	// The bar only redraws on Add, so keep it turning while a tool runs.
	go func(bar *progressbar.ProgressBar, stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(constants.SpinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}(s.bar, s.stop, s.done)
}

// SetDescription updates the text next to the spinner.
func (s *Spinner) SetDescription(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		s.bar.Describe(desc)
	}
}

// Finish stops and clears the spinner. It is safe to call more than once.
func (s *Spinner) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		return
	}
	close(s.stop)
	<-s.done
	_ = s.bar.Finish()
	s.bar = nil
}

// Error stops the spinner and prints err.
func (s *Spinner) Error(err error) {
	s.Finish()
	if err != nil {
		fmt.Fprintf(s.w, "Error: %v\n", err)
	}
}

// LineReporter implements Reporter by printing each new description on its
// own line, for logs and CI output.
type LineReporter struct {
	w    io.Writer
	mu   sync.Mutex
	last string
}

// NewLineReporter creates a reporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Start prints description.
func (p *LineReporter) Start(description string) {
	p.SetDescription(description)
}

// SetDescription prints desc unless it repeats the previous line.
func (p *LineReporter) SetDescription(desc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if desc == "" || desc == p.last {
		return
	}
	p.last = desc
	fmt.Fprintln(p.w, desc)
}

// Finish does nothing; every line is already written.
func (p *LineReporter) Finish() {}

// Error prints err.
func (p *LineReporter) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.w, "Error: %v\n", err)
	}
}

// NoOpProgress is a progress reporter that does nothing (for quiet and
// machine-readable output).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

// Start does nothing.
func (p *NoOpProgress) Start(description string) {}

// SetDescription does nothing.
func (p *NoOpProgress) SetDescription(desc string) {}

// Finish does nothing.
func (p *NoOpProgress) Finish() {}

// Error does nothing.
func (p *NoOpProgress) Error(err error) {}
