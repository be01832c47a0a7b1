package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rewind/internal/config"
	"github.com/matzehuels/rewind/pkg/buildinfo"
	"github.com/matzehuels/rewind/pkg/cutoff"
	"github.com/matzehuels/rewind/pkg/downgrade"
	"github.com/matzehuels/rewind/pkg/integrations/crates"
	"github.com/matzehuels/rewind/pkg/lockfile"
	"github.com/matzehuels/rewind/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "rewind"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	// source and git replace the crates.io client and the git binary in tests.
	source downgrade.VersionSource
	git    cutoff.Git

	lockfile  string
	maxLevels int
	target    targetFlags
}

// targetFlags select the cutoff and what happens to the resolved versions.
type targetFlags struct {
	date string
	git  bool
	rev  string
	run  bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Rewind Cargo dependencies to what crates.io served at a given date",
		Long: `rewind reads a Cargo.lock, finds for each dependency the newest version that
was published before a given date and is not yanked, and prints or applies
the matching "cargo update -p <crate> --precise <version>" pins.

Use it to reproduce a historical build or to bisect a regression introduced
by an upstream release.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVarP(&c.lockfile, "lockfile", "f", lockfile.FileName, "path to Cargo.lock")
	root.PersistentFlags().StringVarP(&c.target.date, "date", "d", "", `cutoff date, e.g. "22 Feb 2021 23:16:09 GMT" or 2021-02-22`)
	root.PersistentFlags().BoolVarP(&c.target.git, "git", "g", false, "take the cutoff from a git commit")
	root.PersistentFlags().StringVar(&c.target.rev, "rev", "HEAD", "commit used with --git")
	root.PersistentFlags().BoolVarP(&c.target.run, "run", "r", false, "pin versions with cargo update instead of printing them")
	root.PersistentFlags().IntVar(&c.maxLevels, "max-levels", 0, "stop traversing after this many dependency levels (default from REWIND_MAX_LEVELS or 255)")

	root.AddCommand(c.allCommand())
	root.AddCommand(c.thisCommand())
	root.AddCommand(c.levelsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c.Config = cfg
	if c.maxLevels <= 0 {
		c.maxLevels = cfg.MaxLevels
	}

	if c.Logger.GetLevel() <= log.DebugLevel {
		hooks := &logHooks{logger: c.Logger}
		observability.SetResolveHooks(hooks)
		observability.SetHTTPHooks(hooks)
		observability.SetApplyHooks(hooks)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Collaborator Factories
// =============================================================================

// versionSource returns the registry client for this run.
func (c *CLI) versionSource() downgrade.VersionSource {
	if c.source != nil {
		return c.source
	}
	return crates.NewClient(c.Config.CratesOptions())
}

// statusOut receives human-facing status lines; stdout is kept for results.
var statusOut io.Writer = os.Stderr
