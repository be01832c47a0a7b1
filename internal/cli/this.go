package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rewind/pkg/downgrade"
	rwerrors "github.com/matzehuels/rewind/pkg/errors"
)

// thisCommand creates the this command for downgrading named crates.
func (c *CLI) thisCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "this <crate[,crate...]>...",
		Short: "Downgrade the named crates",
		Long: `Downgrade an explicit list of crates. The lockfile graph is not consulted.

Crates may be given as separate arguments, comma separated, or both.
Duplicates are ignored.`,
		Example: `  rewind this serde,serde_json --date "22 Feb 2021 23:16:09 GMT"
  rewind this tokio hyper --git --rev v1.2.0 --run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := parseCrateList(args)
			if err != nil {
				return err
			}
			if err := c.validateTarget(); err != nil {
				return err
			}

			ctx := cmd.Context()
			at, err := c.cutoff(ctx)
			if err != nil {
				return err
			}
			return c.downgrade(ctx, cmd.OutOrStdout(), names, at)
		},
	}

	return cmd
}

// parseCrateList splits comma separated arguments into a sorted, deduplicated
// list of valid crate names.
func parseCrateList(args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		for _, name := range strings.Split(arg, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if err := rwerrors.ValidateCrateName(name); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, rwerrors.New(rwerrors.ErrCodeInvalidInput, "no crate names given")
	}
	return downgrade.DedupNames(names), nil
}
