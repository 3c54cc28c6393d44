package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescale/msibuild/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage msibuild configuration",
		Long: `Configuration management commands for msibuild.

The configuration lives in msibuild.ini in the working directory (or the
file named by --config). A missing file means all defaults.

Commands:
  show   - Display current configuration
  set    - Change one setting
  reset  - Restore all defaults
  path   - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigSetCmd())
	configCmd.AddCommand(newConfigResetCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir()
			if err != nil {
				return err
			}
			path := configPathFor(dir)

			cfg, err := config.LoadBuildConfig(path)
			if err != nil {
				return err
			}

			printConfig(cmd.OutOrStdout(), cfg, path)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nWarning: %v\n", err)
			}
			return nil
		},
	}

	return cmd
}

func printConfig(w io.Writer, cfg *config.BuildConfig, path string) {
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "========================================")
	for _, key := range config.ValidKeys() {
		value, _ := cfg.Get(key)
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(w, "%-28s %s\n", key, value)
	}
	fmt.Fprintf(w, "%-28s %s", "Config Location:", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprint(w, " (not created, using defaults)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "========================================")
}

// newConfigSetCmd creates the 'config set' command.
func newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <section.key> <value>",
		Short: "Change one configuration setting",
		Long: `Change one configuration setting and save the file.

Valid keys:
  toolchain.compiler, toolchain.linker, toolchain.ui_extension,
  toolchain.version_variable, toolchain.tool_timeout, toolchain.download_url,
  package.source, package.intermediate, package.output,
  versions.new_file, versions.current_file, logging.log_file`,
		Example: `  msibuild config set toolchain.tool_timeout 5m
  msibuild config set package.output Setup.msi`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.ValidKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir()
			if err != nil {
				return err
			}
			path := configPathFor(dir)

			cfg, err := config.LoadBuildConfig(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("refusing to save: %w", err)
			}
			if err := config.SaveBuildConfig(cfg, path); err != nil {
				return err
			}

			value, _ := cfg.Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s = %s\n", args[0], value)
			return nil
		},
	}

	return cmd
}

// newConfigResetCmd creates the 'config reset' command.
func newConfigResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default configuration",
		Long: `Delete the configuration file so every setting returns to its default.

Asks for confirmation unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir()
			if err != nil {
				return err
			}
			path := configPathFor(dir)
			out := cmd.OutOrStdout()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "No configuration file found. Already at defaults.")
				return nil
			}

			if !force && !confirm(cmd.InOrStdin(), out, "Are you sure you want to reset configuration to defaults?") {
				fmt.Fprintln(out, "Configuration reset cancelled.")
				return nil
			}

			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove config: %w", err)
			}
			fmt.Fprintln(out, "Configuration reset to defaults.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reset without asking")

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), configPathFor(dir))
			return nil
		},
	}

	return cmd
}
