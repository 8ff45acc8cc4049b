package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/childeyouyu/epubedit"
	"github.com/childeyouyu/epubedit/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "epubedit",
		Short: "Read and rewrite ePub package metadata",
		Long: TitleStyle.Render("epubedit") + SubtitleStyle.Render(" - Read and rewrite ePub package metadata") + `

epubedit reads the Dublin Core metadata of an ePub's package document
and writes changes into a fresh copy of the archive. Everything that is
not metadata is copied byte for byte.

` + SubtitleStyle.Render("Examples:") + `
  epubedit show book.epub                       Show every field
  epubedit show *.epub --field ISBN --json      Show one field as JSON
  epubedit get book.epub author_name            Print authors, one per line
  epubedit set book.epub --set book_name=Title  Write book_edited.epub
  epubedit fields                               List field names`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/epubedit/config.yaml)")

	root.AddCommand(newShowCommand(a))
	root.AddCommand(newGetCommand(a))
	root.AddCommand(newSetCommand(a))
	root.AddCommand(newFieldsCommand())
	root.AddCommand(newVersionCommand())

	return root
}

// setup loads the configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "epubedit",
		Level:  level,
	})
	if path != "" {
		a.logger.Debug("loaded config", "path", path)
	}
	return nil
}

// editor returns an Editor configured from the loaded settings.
func (a *app) editor() *epubedit.Editor {
	return epubedit.NewEditor(
		epubedit.WithLogger(a.logger),
		epubedit.WithMaxEntrySize(a.cfg.MaxEntrySize),
		epubedit.WithScratchDir(a.cfg.ScratchDir),
	)
}

// execute runs the command tree with args and returns the process exit code.
func execute(ctx context.Context, args []string) int {
	root := newRootCommand()
	root.SetArgs(args)

	// fang overrides root.Version, so the version string goes through WithVersion.
	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCodeFor(err)
}
