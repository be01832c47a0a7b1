package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/rewind/pkg/dag"
	rwerrors "github.com/matzehuels/rewind/pkg/errors"
)

// allCommand creates the all command for downgrading the whole lockfile.
func (c *CLI) allCommand() *cobra.Command {
	var level int

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Downgrade every dependency in the lockfile",
		Long: `Downgrade every transitive dependency of the workspace crates.

The lockfile graph is walked breadth-first from the crates nothing depends on.
Those roots are never downgraded. With --level only the dependencies at that
distance from the roots are selected.`,
		Example: `  # Print pins for the state of crates.io on a date
  rewind all --date 2021-02-22

  # Pin only direct dependencies, using the last commit's time
  rewind all --git --level 1 --run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("level") && level < 1 {
				return rwerrors.New(rwerrors.ErrCodeInvalidInput, "--level must be at least 1, got %d", level)
			}
			if err := c.validateTarget(); err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			at, err := c.cutoff(ctx)
			if err != nil {
				return err
			}
			g, err := c.loadGraph(logger)
			if err != nil {
				return err
			}

			names, _ := dag.SelectLevels(g, dag.LevelOptions{
				Depth:     level,
				MaxLevels: c.maxLevels,
				Logger:    logger,
			})
			return c.downgrade(ctx, cmd.OutOrStdout(), names.Sorted(), at)
		},
	}

	cmd.Flags().IntVarP(&level, "level", "l", dag.AllLevels, "only downgrade dependencies at this distance from the roots")

	return cmd
}
