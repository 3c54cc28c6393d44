package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rescale/msibuild/internal/versioning"
)

// newVersionCmd creates the 'version' command group.
func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show and change the release version state",
		Long: `Manage the two version slots that decide what the next release carries.

Commands:
  show       - Display current and next versions
  set        - Set the next (or current) version explicitly
  increment  - Bump current by patch, minor or major into next
  reset      - Restore next=1.0.0 and current=0.0.0`,
	}

	versionCmd.AddCommand(newVersionShowCmd())
	versionCmd.AddCommand(newVersionSetCmd())
	versionCmd.AddCommand(newVersionIncrementCmd())
	versionCmd.AddCommand(newVersionResetCmd())

	return versionCmd
}

// newVersionShowCmd creates the 'version show' command.
func newVersionShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current and next versions",
		Long: `Display the version state. When next differs from current it is the
version the next release build carries. Otherwise the three possible
increments of current are listed; nothing is written either way.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}

			summary := versioning.Summarize(e.store().Read())
			return writeOutput(cmd.OutOrStdout(), output, summary, func(w io.Writer) error {
				printSummary(w, summary)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	return cmd
}

func printSummary(w io.Writer, s versioning.Summary) {
	fmt.Fprintf(w, "Current version: %s\n", s.State.Current)
	fmt.Fprintf(w, "New version:     %s\n", s.State.New)

	if s.Pending {
		fmt.Fprintf(w, "\nNext release version: %s\n", s.Next)
		return
	}

	fmt.Fprintln(w, "\nNo new version set. Possible next versions:")
	for _, level := range versioning.Levels {
		if r, ok := s.Candidates.For(level); ok {
			fmt.Fprintf(w, "  %-6s %s\n", level, r)
		} else {
			fmt.Fprintf(w, "  %-6s (not available, %s is at its limit)\n", level, level)
		}
	}
	fmt.Fprintln(w, "\nRun 'msibuild version increment <level>' or 'msibuild version set <version>'.")
}

// newVersionSetCmd creates the 'version set' command.
func newVersionSetCmd() *cobra.Command {
	var slotName string

	cmd := &cobra.Command{
		Use:   "set <version>",
		Short: "Set a version slot explicitly",
		Long: `Set the next release version (or, with --slot current, the current one).

The version must be MAJOR.MINOR.PATCH, for example 2.4.0. Anything else is
rejected and the stored state is left unchanged.`,
		Example: `  msibuild version set 2.0.0
  msibuild version set 1.9.3 --slot current`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := versioning.ParseSlot(slotName)
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}

			c := versioning.SetSlotVersion(slot, args[0])
			r, err := e.store().Apply(c)
			if err != nil {
				return err
			}

			GetLogger().Debug().Str("command", c.String()).Msg("Version state updated")
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s version to %s\n", slot, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&slotName, "slot", string(versioning.SlotNew), "Slot to set: new or current")

	return cmd
}

// newVersionIncrementCmd creates the 'version increment' command.
func newVersionIncrementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "increment <patch|minor|major>",
		Short: "Bump the current version into the next version",
		Long: `Compute the next version from the current one and store it as the next
release version. The current version is not changed.

  patch  1.4.2 -> 1.4.3
  minor  1.4.2 -> 1.5.0
  major  1.4.2 -> 2.0.0`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"patch", "minor", "major"},
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := versioning.ParseLevel(args[0])
			if err != nil {
				return err
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}

			store := e.store()
			current := store.Read().Current
			r, err := store.Apply(versioning.IncrementBy(level))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Next version: %s (%s increment of %s)\n", r, level, current)
			return nil
		},
	}

	return cmd
}

// newVersionResetCmd creates the 'version reset' command.
func newVersionResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default version state",
		Long:  `Write new=1.0.0 and current=0.0.0. Running it again changes nothing.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}

			if err := e.store().Reset(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Version state reset (new=%s, current=%s)\n",
				versioning.DefaultNew, versioning.DefaultCurrent)
			return nil
		},
	}

	return cmd
}
