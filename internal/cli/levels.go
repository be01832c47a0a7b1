package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rewind/pkg/dag"
)

// levelsCommand creates the levels command for inspecting the lockfile tiers.
func (c *CLI) levelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Show the dependency levels of the lockfile",
		Long: `Print every breadth-first level of the lockfile graph, starting with the
workspace roots at level 0. Use the numbers with "rewind all --level".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			g, err := c.loadGraph(logger)
			if err != nil {
				return err
			}

			levels, overflow := dag.Levels(g, c.maxLevels)
			out := cmd.OutOrStdout()
			for _, lvl := range levels {
				fmt.Fprintf(out, "%d: %s\n", lvl.Depth, strings.Join(lvl.Names.Sorted(), ", "))
			}
			if overflow {
				printWarning("Stopped after %d levels", c.maxLevels)
			}
			printKeyValue("Crates", StyleNumber.Render(fmt.Sprint(g.NodeCount())))
			printKeyValue("Levels", StyleNumber.Render(fmt.Sprint(len(levels))))
			return nil
		},
	}

	return cmd
}
