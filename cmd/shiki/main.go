package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/shiki/internal/app"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shiki: %v\n", err)
		return 1
	}
	return 0
}

// globalFlags are the persistent flags every subcommand shares.
type globalFlags struct {
	configPath string
	prefsPath  string
	ephemeral  bool
	verbose    bool
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath: g.configPath,
		PrefsPath:  g.prefsPath,
		Ephemeral:  g.ephemeral,
		Verbose:    g.verbose,
		Version:    version,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	runTUI := func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), flags.options())
	}

	root := &cobra.Command{
		Use:   "shiki",
		Short: "Browse the anime schedule and keep track of what you watch",
		Long: `shiki is a terminal client for the Jikan anime catalog.

Run without a subcommand to open the interactive view. The subcommands cover
the same lists and lookups for scripts and quick checks.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/shiki/config.toml)")
	root.PersistentFlags().StringVar(&flags.prefsPath, "prefs", "", "preferences file (default ~/.config/shiki/prefs.toml)")
	root.PersistentFlags().BoolVar(&flags.ephemeral, "ephemeral", false, "keep lists and session in memory for this run only")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Open the interactive view (default)",
			Args:  cobra.NoArgs,
			RunE:  runTUI,
		},
		newListCmd(flags, listTracked),
		newListCmd(flags, listWatchLater),
		newScheduleCmd(flags),
		newSeasonCmd(flags),
		newShowCmd(flags),
		newLoginCmd(flags, false),
		newLoginCmd(flags, true),
		newLogoutCmd(flags),
		newWhoamiCmd(flags),
	)
	return root
}

// withEnv opens the application services, waits for the tracked lists, runs
// fn, and closes everything again.
func withEnv(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, env *app.Env) error) (err error) {
	ctx := cmd.Context()
	env, err := app.Open(ctx, flags.options())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); err == nil {
			err = cerr
		}
	}()
	env.Tracking.Load(ctx)
	return fn(ctx, env)
}
