package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/msibuild/internal/constants"
	"github.com/rescale/msibuild/internal/events"
	"github.com/rescale/msibuild/internal/pipeline"
	"github.com/rescale/msibuild/internal/progress"
	"github.com/rescale/msibuild/internal/toolchain"
	"github.com/rescale/msibuild/internal/versioning"
)

// lookupTool resolves tools during build; tests replace it.
var lookupTool toolchain.LookupFunc

// toolRunner runs tools during build; tests replace it.
var toolRunner toolchain.Runner

// buildOptions holds the 'build' flags.
type buildOptions struct {
	version  string
	dryRun   bool
	noRecord bool
	output   string
}

// newBuildCmd creates the 'build' command.
func newBuildCmd() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the MSI package",
		Long: `Build the installer package with the WiX toolset:

  1. check that the compiler and linker are installed
  2. remove artifacts left by an earlier run
  3. compile the installer source with the release version
  4. link the package
  5. remove the intermediate object

The version is the pending new version, or the next patch version when none
is pending. Use --version to build a specific version instead. After a
successful build the built version is recorded as current unless
--no-record is given. A pending new version that differs from the built one
(for example after a --version hotfix build) is kept.`,
		Example: `  msibuild build
  msibuild build --version 2.1.0 --no-record
  msibuild build --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.version, "version", "", "Build this version instead of the pending one")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show the tool invocations without running anything")
	cmd.Flags().BoolVar(&opts.noRecord, "no-record", false, "Don't record the built version as current")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions) error {
	if err := validateOutput(opts.output); err != nil {
		return err
	}
	e, err := loadEnv()
	if err != nil {
		return err
	}

	store := e.store()
	buildVersion := opts.version
	if buildVersion == "" {
		next, err := versioning.Summarize(store.Read()).NextVersion()
		if err != nil {
			return err
		}
		buildVersion = next.String()
	}

	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	log := GetLogger()
	loud := verbose || debug

	pipeOpts := pipeline.Options{
		Dir:             e.dir,
		Compiler:        e.cfg.Toolchain.Compiler,
		Linker:          e.cfg.Toolchain.Linker,
		UIExtension:     e.cfg.Toolchain.UIExtension,
		VersionVariable: e.cfg.Toolchain.VersionVariable,
		Source:          e.cfg.Package.Source,
		Intermediate:    e.cfg.Package.Intermediate,
		Package:         e.cfg.Package.Output,
		ToolTimeout:     e.cfg.Toolchain.ToolTimeout,
		DownloadURL:     e.cfg.Toolchain.DownloadURL,
		Lookup:          lookupTool,
		Runner:          toolRunner,
		Logger:          log,
	}
	if !loud {
		// Keep the console for the spinner; the log file still gets everything.
		pipeOpts.Logger = log.FileOnly()
	}
	if pipeOpts.Runner == nil {
		var stream io.Writer
		if loud {
			stream = stderr
		}
		pipeOpts.Runner = toolchain.NewExecRunner(stream)
	}

	if opts.dryRun {
		if _, err := versioning.Parse(buildVersion); err != nil {
			return err
		}
		p := pipeline.New(pipeOpts)
		plan := p.Plan(buildVersion)
		return writeOutput(out, opts.output, plan, func(w io.Writer) error {
			printPlan(w, p, buildVersion, plan)
			return nil
		})
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	defer bus.Close()
	pipeOpts.Events = bus

	var reporter progress.Reporter = progress.NewNoOpProgress()
	if opts.output == outputText && !loud {
		reporter = progress.New(stderr)
	}
	tracked := progress.Track(bus.SubscribeAll(), reporter)

	result, runErr := pipeline.New(pipeOpts).Run(GetContext(), buildVersion)
	bus.Close()
	<-tracked
	if dropped := bus.GetDroppedEventCount(); dropped > 0 {
		log.Debug().Int64("dropped", dropped).Msg("Progress events dropped")
	}

	var pending *versioning.Record
	if runErr == nil && !opts.noRecord {
		built, err := versioning.Parse(buildVersion)
		if err != nil {
			return err
		}
		pending, err = store.Release(built)
		if err != nil {
			return fmt.Errorf("package built but failed to record version %s: %w", built, err)
		}
		log.Debug().Str("version", built.String()).Bool("kept_pending", pending != nil).Msg("Recorded built version")
	}

	if err := writeOutput(out, opts.output, result, func(w io.Writer) error {
		printResult(w, result, runErr, opts.noRecord, pending)
		return nil
	}); err != nil {
		return err
	}
	return runErr
}

func printPlan(w io.Writer, p *pipeline.Pipeline, v string, plan []toolchain.Invocation) {
	source, intermediate, pkg := p.Paths()
	fmt.Fprintf(w, "[DRY RUN] Would build version %s:\n", v)
	fmt.Fprintf(w, "  check toolchain: %s\n", planTools(plan))
	fmt.Fprintf(w, "  check source:    %s\n", source)
	fmt.Fprintf(w, "  remove:          %s, %s\n", intermediate, pkg)
	for _, inv := range plan {
		fmt.Fprintf(w, "  run %-8s     %s\n", inv.Tool+":", inv.CommandLine())
	}
	fmt.Fprintf(w, "  remove:          %s\n", intermediate)
}

func planTools(plan []toolchain.Invocation) string {
	names := make([]string, 0, len(plan))
	for _, inv := range plan {
		names = append(names, inv.Path)
	}
	return strings.Join(names, ", ")
}

func printResult(w io.Writer, r *pipeline.Result, runErr error, noRecord bool, pending *versioning.Record) {
	if runErr == nil {
		fmt.Fprintln(w, "Build succeeded")
		fmt.Fprintf(w, "  Version:  %s\n", r.Version)
		fmt.Fprintf(w, "  Package:  %s\n", r.Package.Path)
		fmt.Fprintf(w, "  Size:     %s\n", formatSize(r.Package.Size))
		fmt.Fprintf(w, "  Created:  %s\n", r.Package.Created.Format(time.DateTime))
		fmt.Fprintf(w, "  Duration: %s\n", r.Duration.Round(time.Millisecond))
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  Warning:  %s\n", warn)
		}
		if !noRecord {
			fmt.Fprintf(w, "Recorded %s as the current version\n", r.Version)
		}
		if pending != nil {
			fmt.Fprintf(w, "Pending new version %s is unchanged\n", pending)
		}
		return
	}

	fmt.Fprintf(w, "Build failed during %s\n", failedState(runErr, r))
	if pe, ok := pipeline.AsError(runErr); ok && pe.Output != "" {
		fmt.Fprintf(w, "\n%s output:\n", pe.Tool)
		for _, line := range strings.Split(strings.TrimRight(pe.Output, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}
}

func failedState(err error, r *pipeline.Result) string {
	if pe, ok := pipeline.AsError(err); ok {
		return pe.State.String()
	}
	return r.State.String()
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB (%d bytes)", float64(n)/float64(div), "KMGTPE"[exp], n)
}
