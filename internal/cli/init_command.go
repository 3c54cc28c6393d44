package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescale/msibuild/installer"
	"github.com/rescale/msibuild/internal/config"
	"github.com/rescale/msibuild/internal/pathutil"
)

// newInitCmd creates the 'init' command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter installer source and configuration",
		Long: `Write a starter WiX source file and msibuild.ini with default settings
into the working directory. Existing files are kept unless --force is given.

Version files are not created; they are written on the first version change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			cfgPath := configPathFor(dir)
			cfg, err := config.LoadBuildConfig(cfgPath)
			if err != nil {
				return err
			}

			source := pathutil.ResolveIn(dir, cfg.Package.Source)
			if wrote, err := writeIfAbsent(source, installer.Template, force); err != nil {
				return err
			} else if wrote {
				fmt.Fprintf(out, "Created %s\n", source)
			} else {
				fmt.Fprintf(out, "Kept existing %s\n", source)
			}

			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(out, "Kept existing %s\n", cfgPath)
				return nil
			}
			if err := config.SaveBuildConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", cfgPath)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")

	return cmd
}

// writeIfAbsent writes data to path unless it exists and force is false.
func writeIfAbsent(path string, data []byte, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
