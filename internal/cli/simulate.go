package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/craftgraph/internal/harness"
)

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate SCENARIO.yaml",
		Short: "Run an exploration scenario offline",
		Long: `Run an exploration scenario against its scripted oracle and print the
probe trace followed by the discovery order, depths and build sequences of
the resulting log. Nothing is written to disk and no network call is made.

Exit codes:
  0 - The scenario ran and every assertion held
  1 - One or more assertions failed
  2 - Command error (unreadable or invalid scenario)

Example:
  craftgraph simulate ./scenarios/steam.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := harness.LoadScenario(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load scenario", err)
			}

			// Engine logs are only useful when debugging a scenario.
			var runOpts []harness.Option
			if rootOpts.Verbose {
				runOpts = append(runOpts, harness.WithLogger(rootOpts.newLogger(cmd.ErrOrStderr())))
			}

			result, err := harness.Run(cmd.Context(), scenario, runOpts...)
			if err != nil {
				return WrapExitError(ExitCommandError, "scenario could not run", err)
			}

			f := rootOpts.formatter(cmd)
			if f.Format == "json" {
				if result.Pass {
					if err := f.Success(result); err != nil {
						return err
					}
				} else if err := f.Error(CodeScenario, "scenario failed", result); err != nil {
					return err
				}
			} else if err := harness.Format(f.Writer, scenario, result); err != nil {
				return err
			}

			if !result.Pass {
				return NewExitError(ExitFailure,
					fmt.Sprintf("scenario %s failed: %s", scenario.Name, strings.Join(result.Errors, "; ")))
			}
			return nil
		},
	}
}
