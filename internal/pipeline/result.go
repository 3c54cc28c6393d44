package pipeline

import (
	"time"
)

// StepResult records one external tool run.
type StepResult struct {
	State       State         `json:"state" yaml:"state"`
	Tool        string        `json:"tool" yaml:"tool"`
	CommandLine string        `json:"command_line" yaml:"command_line"`
	ExitCode    int           `json:"exit_code" yaml:"exit_code"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	Output      string        `json:"output,omitempty" yaml:"output,omitempty"`
}

// PackageInfo describes the final package of a successful run.
type PackageInfo struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
	// Created is the file's modification time, which for a freshly linked
	// package is its creation time.
	Created time.Time `json:"created" yaml:"created"`
}

// Result is the structured report of one run, successful or not.
type Result struct {
	RunID   string    `json:"run_id" yaml:"run_id"`
	Version string    `json:"version" yaml:"version"`
	State   State     `json:"state" yaml:"state"`
	History []State   `json:"history" yaml:"history"`
	Started time.Time `json:"started" yaml:"started"`

	Duration time.Duration `json:"duration" yaml:"duration"`
	Steps    []StepResult  `json:"steps,omitempty" yaml:"steps,omitempty"`
	Package  *PackageInfo  `json:"package,omitempty" yaml:"package,omitempty"`

	// Warnings are problems that did not fail the run.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	// Error is the abort reason, empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the run reached the success state.
func (r *Result) Succeeded() bool {
	return r != nil && r.State.Succeeded()
}

// Step returns the tool result recorded for state, if that step ran.
func (r *Result) Step(state State) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.State == state {
			return s, true
		}
	}
	return StepResult{}, false
}
