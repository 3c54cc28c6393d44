// Package cli provides the command-line interface for msibuild.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/msibuild/internal/config"
	"github.com/rescale/msibuild/internal/logging"
	"github.com/rescale/msibuild/internal/version"
)

var (
	// Global flags
	cfgFile string
	workDir string
	logFile string
	verbose bool
	debug   bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "msibuild",
		Short: "Build MSI installers with the WiX toolset and track release versions",
		Long: `msibuild ` + version.Version + ` - Built: ` + version.BuildTime + `
Packages an application into a Windows Installer (MSI) package by running the
WiX compiler and linker, and keeps the version the next release will carry.

Version state lives in two files in the working directory:
  version-new.txt      the version the next release build carries
  version-current.txt  the version of the last release

Typical release:
  msibuild version increment minor
  msibuild build`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				logging.SetGlobalLevel(zerolog.InfoLevel)
			}
			logger = logging.New(logging.Options{
				Out:     cmd.ErrOrStderr(),
				LogFile: config.ResolveLogFile(logFile),
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default: msibuild.ini in the working directory)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Working directory holding the installer source and version files")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages and tool output)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Enable tab-completion for msibuild commands",
		Long: `Generate shell completion scripts to enable tab-completion for msibuild.

QUICK START:

  PowerShell:
    msibuild completion powershell >> $PROFILE

  bash:
    source <(msibuild completion bash)

  zsh:
    msibuild completion zsh > "${fpath[1]}/_msibuild"`,
	}

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	return completionCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop so repeated Ctrl+C presses don't fall through to the default handler
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, stopping the running tool...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)
	closeLogger()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// closeLogger closes the log file. cobra skips post-run hooks when a command
// fails, so this runs after Execute returns instead.
func closeLogger() {
	if logger != nil {
		_ = logger.Close()
		logger = nil
	}
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
