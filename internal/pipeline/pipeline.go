// Package pipeline drives the MSI build: resolve the WiX tools, clear stale
// artifacts, compile, link and remove the intermediate object.
//
// Each tool's exit status is authoritative. Nothing is retried: compiler and
// linker failures are deterministic, so the pipeline stops at the first one
// and reports which step failed together with the tool's own output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rescale/msibuild/internal/constants"
	"github.com/rescale/msibuild/internal/diskspace"
	"github.com/rescale/msibuild/internal/events"
	"github.com/rescale/msibuild/internal/logging"
	"github.com/rescale/msibuild/internal/pathutil"
	"github.com/rescale/msibuild/internal/toolchain"
	"github.com/rescale/msibuild/internal/versioning"
)

// Options configures a Pipeline. Zero values fall back to the WiX defaults in
// constants.
type Options struct {
	// Dir is the working directory holding the source and receiving artifacts.
	Dir string

	Compiler        string
	Linker          string
	UIExtension     string
	VersionVariable string

	Source       string
	Intermediate string
	Package      string

	// ToolTimeout bounds each tool run. Zero means no limit.
	ToolTimeout time.Duration
	// DownloadURL is shown when the toolchain is missing.
	DownloadURL string

	Runner toolchain.Runner
	Lookup toolchain.LookupFunc
	Events *events.EventBus
	Logger *logging.Logger
}

// Pipeline runs builds. A Pipeline may be reused for several sequential runs
// but is not safe for concurrent use.
type Pipeline struct {
	opts   Options
	runner toolchain.Runner
	logger *logging.Logger
	events *events.EventBus
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Compiler == "" {
		opts.Compiler = constants.CompilerTool
	}
	if opts.Linker == "" {
		opts.Linker = constants.LinkerTool
	}
	if opts.VersionVariable == "" {
		opts.VersionVariable = constants.VersionVariable
	}
	if opts.Source == "" {
		opts.Source = constants.SourceFile
	}
	if opts.Intermediate == "" {
		opts.Intermediate = constants.IntermediateFile
	}
	if opts.Package == "" {
		opts.Package = constants.PackageFile
	}
	if opts.DownloadURL == "" {
		opts.DownloadURL = constants.ToolchainDownloadURL
	}

	runner := opts.Runner
	if runner == nil {
		runner = toolchain.NewExecRunner(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Pipeline{
		opts:   opts,
		runner: runner,
		logger: logger,
		events: opts.Events,
	}
}

// run is the mutable state of one Run call.
type run struct {
	result   *Result
	compiler string
	linker   string
}

// Run builds the package for version. The returned Result is never nil; on
// failure the error is a *Error describing the abort.
func (p *Pipeline) Run(ctx context.Context, version string) (*Result, error) {
	r := &run{
		result: &Result{
			RunID:   uuid.NewString(),
			Version: version,
			State:   StateIdle,
			History: []State{StateIdle},
			Started: time.Now(),
		},
	}

	p.logger.Info().
		Str("run_id", r.result.RunID).
		Str("version", version).
		Str("dir", p.opts.Dir).
		Msg("Build started")

	err := p.execute(ctx, r)

	r.result.Duration = time.Since(r.result.Started)
	if p.events != nil {
		p.events.PublishComplete(r.result.RunID, err == nil, r.result.Duration)
	}

	if err != nil {
		r.result.Error = err.Error()
		return r.result, err
	}
	return r.result, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) error {
	if err := p.precheck(r); err != nil {
		return err
	}
	if err := p.clean(r); err != nil {
		return err
	}
	if err := p.compile(ctx, r); err != nil {
		return err
	}
	if err := p.link(ctx, r); err != nil {
		return err
	}
	if err := p.postCleanup(r); err != nil {
		return err
	}
	return p.report(r)
}

// Plan returns the tool invocations a run for version would make, using the
// configured tool names. Nothing is resolved, executed or touched.
func (p *Pipeline) Plan(version string) []toolchain.Invocation {
	return []toolchain.Invocation{
		p.compileInvocation(p.opts.Compiler, version),
		p.linkInvocation(p.opts.Linker),
	}
}

// Paths returns the source, intermediate object and final package, joined to
// the working directory unless configured as absolute paths.
func (p *Pipeline) Paths() (source, intermediate, pkg string) {
	return pathutil.ResolveIn(p.opts.Dir, p.opts.Source),
		pathutil.ResolveIn(p.opts.Dir, p.opts.Intermediate),
		pathutil.ResolveIn(p.opts.Dir, p.opts.Package)
}

func (p *Pipeline) compileInvocation(tool, version string) toolchain.Invocation {
	return toolchain.Invocation{
		Tool: "compiler",
		Path: tool,
		Args: []string{
			"-nologo",
			fmt.Sprintf("-d%s=%s", p.opts.VersionVariable, version),
			p.opts.Source,
			"-out", p.opts.Intermediate,
		},
		Dir: p.opts.Dir,
	}
}

func (p *Pipeline) linkInvocation(tool string) toolchain.Invocation {
	args := []string{"-nologo"}
	if p.opts.UIExtension != "" {
		args = append(args, "-ext", p.opts.UIExtension)
	}
	args = append(args, p.opts.Intermediate, "-out", p.opts.Package)

	return toolchain.Invocation{
		Tool: "linker",
		Path: tool,
		Args: args,
		Dir:  p.opts.Dir,
	}
}

// transition moves r to the next state, rejecting anything the state table
// does not allow.
func (p *Pipeline) transition(r *run, to State, errMsg string) error {
	from := r.result.State
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("invalid pipeline transition %s -> %s", from, to)
	}

	r.result.State = to
	r.result.History = append(r.result.History, to)

	p.logger.Debug().
		Str("run_id", r.result.RunID).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("State change")
	if p.events != nil {
		p.events.PublishStateChange(r.result.RunID, from.String(), to.String(), errMsg)
	}
	return nil
}

// abort records pe and moves r to Aborted.
func (p *Pipeline) abort(r *run, pe *Error) error {
	pe.State = r.result.State
	if err := p.transition(r, StateAborted, pe.Error()); err != nil {
		return errors.Join(pe, err)
	}

	event := p.logger.Error().
		Str("run_id", r.result.RunID).
		Str("state", pe.State.String()).
		Str("kind", pe.Kind.String())
	if pe.Kind == KindCompileFailed || pe.Kind == KindLinkFailed {
		event = event.Int("exit_code", pe.ExitCode).Bool("timed_out", pe.TimedOut)
	}
	event.Msg("Build aborted")

	return pe
}

// toolPath anchors a configured tool path such as tools/candle to the working
// directory, where the tool is later started. Bare names go to the PATH search.
func (p *Pipeline) toolPath(name string) string {
	if filepath.Base(name) == name {
		return name
	}
	return pathutil.ResolveIn(p.opts.Dir, name)
}

func (p *Pipeline) precheck(r *run) error {
	if err := p.transition(r, StatePrecheck, ""); err != nil {
		return err
	}

	if _, err := versioning.Parse(r.result.Version); err != nil {
		return p.abort(r, &Error{Kind: KindInvalidVersion, Err: err})
	}

	var missing []string
	var causes []error
	compiler, err := toolchain.Resolve(p.toolPath(p.opts.Compiler), p.opts.Lookup)
	if err != nil {
		missing = append(missing, p.opts.Compiler)
		causes = append(causes, err)
	}
	linker, err := toolchain.Resolve(p.toolPath(p.opts.Linker), p.opts.Lookup)
	if err != nil {
		missing = append(missing, p.opts.Linker)
		causes = append(causes, err)
	}
	if len(missing) > 0 {
		return p.abort(r, &Error{
			Kind: KindToolchainMissing,
			Tool: strings.Join(missing, ", "),
			Hint: fmt.Sprintf("install the WiX Toolset from %s and add its bin directory to PATH", p.opts.DownloadURL),
			Err:  errors.Join(causes...),
		})
	}
	r.compiler, r.linker = compiler, linker

	source, _, _ := p.Paths()
	info, err := os.Stat(source)
	if err != nil {
		return p.abort(r, &Error{Kind: KindSourceMissing, Err: fmt.Errorf("cannot read %s: %w", source, err)})
	}
	if info.IsDir() {
		return p.abort(r, &Error{Kind: KindSourceMissing, Err: fmt.Errorf("%s is a directory", source)})
	}

	if err := diskspace.CheckAvailableSpace(p.opts.Dir, constants.MinFreeSpaceBytes); err != nil {
		p.warn(r, "low disk space", err)
	}

	p.logger.Debug().
		Str("compiler", compiler).
		Str("linker", linker).
		Msg("Toolchain resolved")
	return nil
}

func (p *Pipeline) clean(r *run) error {
	if err := p.transition(r, StateCleaning, ""); err != nil {
		return err
	}

	_, intermediate, pkg := p.Paths()
	for _, path := range []string{intermediate, pkg} {
		removed, err := removeIfExists(path)
		if err != nil {
			return p.abort(r, &Error{Kind: KindCleanupFailed, Err: err})
		}
		if removed {
			p.logger.Info().Str("path", path).Msg("Removed stale artifact")
		}
	}
	return nil
}

func (p *Pipeline) compile(ctx context.Context, r *run) error {
	if err := p.transition(r, StateCompiling, ""); err != nil {
		return err
	}

	inv := p.compileInvocation(r.compiler, r.result.Version)
	// The intermediate object of a failed compile is left in place for
	// inspection; the next run's cleaning step removes it.
	return p.runTool(ctx, r, inv, KindCompileFailed, p.opts.Compiler)
}

func (p *Pipeline) link(ctx context.Context, r *run) error {
	if err := p.transition(r, StateLinking, ""); err != nil {
		return err
	}

	inv := p.linkInvocation(r.linker)
	if err := p.runTool(ctx, r, inv, KindLinkFailed, p.opts.Linker); err != nil {
		return err
	}

	_, _, pkg := p.Paths()
	info, err := os.Stat(pkg)
	if err != nil {
		return p.abort(r, &Error{
			Kind:     KindLinkFailed,
			Tool:     p.opts.Linker,
			ExitCode: 0,
			Err:      fmt.Errorf("linker reported success but produced no package: %w", err),
		})
	}
	if info.Size() == 0 {
		return p.abort(r, &Error{
			Kind: KindLinkFailed,
			Tool: p.opts.Linker,
			Err:  fmt.Errorf("linker produced an empty package %s", pkg),
		})
	}

	r.result.Package = &PackageInfo{
		Path:    pkg,
		Size:    info.Size(),
		Created: info.ModTime(),
	}
	return nil
}

func (p *Pipeline) postCleanup(r *run) error {
	if err := p.transition(r, StatePostCleanup, ""); err != nil {
		return err
	}

	_, intermediate, _ := p.Paths()
	if _, err := removeIfExists(intermediate); err != nil {
		// The package is already built; a leftover object file only costs disk.
		p.warn(r, "could not remove intermediate object", err)
	}
	return nil
}

// warn records a problem that does not fail the run.
func (p *Pipeline) warn(r *run, msg string, err error) {
	text := fmt.Sprintf("%s: %v", msg, err)
	r.result.Warnings = append(r.result.Warnings, text)
	p.logger.Warn().Err(err).Str("state", r.result.State.String()).Msg(msg)
	if p.events != nil {
		p.events.PublishLog(r.result.RunID, events.WarnLevel, text, r.result.State.String(), err)
	}
}

func (p *Pipeline) report(r *run) error {
	if err := p.transition(r, StateReporting, ""); err != nil {
		return err
	}

	pkg := r.result.Package
	p.logger.Info().
		Str("run_id", r.result.RunID).
		Str("package", pkg.Path).
		Int64("size", pkg.Size).
		Time("created", pkg.Created).
		Msg("Build succeeded")
	return nil
}

// runTool executes inv under the per-tool timeout and turns anything but a
// clean exit into an abort of kind.
func (p *Pipeline) runTool(ctx context.Context, r *run, inv toolchain.Invocation, kind Kind, toolName string) error {
	toolCtx := ctx
	if p.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		toolCtx, cancel = context.WithTimeout(ctx, p.opts.ToolTimeout)
		defer cancel()
	}

	p.logger.Info().Str("tool", inv.Tool).Msg(inv.CommandLine())
	if p.events != nil {
		p.events.PublishLog(r.result.RunID, events.InfoLevel, inv.CommandLine(), r.result.State.String(), nil)
	}

	res, err := p.runner.Run(toolCtx, inv)
	if res == nil {
		res = &toolchain.Result{ExitCode: -1}
	}

	r.result.Steps = append(r.result.Steps, StepResult{
		State:       r.result.State,
		Tool:        toolName,
		CommandLine: inv.CommandLine(),
		ExitCode:    res.ExitCode,
		Duration:    res.Duration,
		Output:      string(res.Output),
	})

	if err != nil {
		return p.abort(r, &Error{
			Kind:     kind,
			Tool:     toolName,
			ExitCode: res.ExitCode,
			Output:   string(res.Output),
			TimedOut: errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil,
			Err:      err,
		})
	}
	if !res.Success() {
		return p.abort(r, &Error{
			Kind:     kind,
			Tool:     toolName,
			ExitCode: res.ExitCode,
			Output:   string(res.Output),
		})
	}

	p.logger.Debug().
		Str("tool", inv.Tool).
		Dur("duration", res.Duration).
		Msg("Tool finished")
	return nil
}

// removeIfExists deletes path, treating "already gone" as success.
func removeIfExists(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to remove %s: %w", path, err)
}
