// Package cli wires the preset pipeline to the command line.
package cli

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/unfold-sh/preset/internal/version"
	"github.com/unfold-sh/preset/pkg/config"
	"github.com/unfold-sh/preset/pkg/logging"
	"github.com/unfold-sh/preset/pkg/runner"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "preset",
		Short: MsgRootShort,
		Long: `preset applies a declaratively-described bundle of file edits onto a
target directory, to scaffold a new project or retrofit an existing one.
Presets are authored as small configuration scripts and executed in an
isolated sandbox.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(effectiveVerbosity(cmd.Flags().Changed("verbose"), verbosity))
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	// Add all commands
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// effectiveVerbosity combines the flag count with the configured
// default. An explicit flag always wins; otherwise the user config's
// apply.verbosity applies.
func effectiveVerbosity(flagGiven bool, flagCount int) int {
	if flagGiven {
		return flagCount
	}
	cfg, err := config.Load()
	if err != nil {
		return flagCount
	}
	return cfg.Verbosity
}

// newApplyCmd builds the apply command, the tool's main entry point
func newApplyCmd() *cobra.Command {
	var target string
	var args []string

	cmd := &cobra.Command{
		Use:   "apply <preset> [target]",
		Short: MsgApplyShort,
		Long:  MsgApplyLong,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			resolvable := cmdArgs[0]
			if target == "" {
				target = cfg.Target
			}
			if len(cmdArgs) > 1 {
				target = cmdArgs[1]
			}

			if err := runner.Run(resolvable, runner.Options{Target: target, Args: args}); err != nil {
				pterm.Error.Printfln(MsgApplyFailure, err)
				return err
			}

			pterm.Success.Printfln(MsgApplySuccess, resolvable, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target directory (defaults to the current directory)")
	cmd.Flags().StringSliceVar(&args, "arg", nil, "Pass-through arguments exposed to the preset")

	return cmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("preset version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
