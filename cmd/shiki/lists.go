package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shiki/internal/app"
	"github.com/five82/shiki/internal/tracking"
)

type listSpec struct {
	set   tracking.SetName
	use   string
	noun  string
	short string
}

var (
	listTracked    = listSpec{set: tracking.Tracked, use: "track", noun: "tracked", short: "Manage tracked shows"}
	listWatchLater = listSpec{set: tracking.WatchLater, use: "later", noun: "watch later", short: "Manage the watch-later list"}
)

func newListCmd(flags *globalFlags, spec listSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <id>...",
			Short: "Add shows by MyAnimeList id",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseIDs(args)
				if err != nil {
					return err
				}
				return withEnv(cmd, flags, func(_ context.Context, env *app.Env) error {
					for _, id := range ids {
						if env.Tracking.Contains(spec.set, id) {
							fmt.Fprintf(cmd.OutOrStdout(), "%s is already %s\n", id, spec.noun)
							continue
						}
						env.Tracking.Add(spec.set, id)
						fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", id, spec.noun)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "remove <id>...",
			Aliases: []string{"rm"},
			Short:   "Remove shows by MyAnimeList id",
			Args:    cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := parseIDs(args)
				if err != nil {
					return err
				}
				return withEnv(cmd, flags, func(_ context.Context, env *app.Env) error {
					for _, id := range ids {
						if !env.Tracking.Contains(spec.set, id) {
							fmt.Fprintf(cmd.OutOrStdout(), "%s is not %s\n", id, spec.noun)
							continue
						}
						env.Tracking.Remove(spec.set, id)
						fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", id, spec.noun)
					}
					return nil
				})
			},
		},
		newListShowCmd(flags, spec),
	)
	return cmd
}

func newListShowCmd(flags *globalFlags, spec listSpec) *cobra.Command {
	var idsOnly bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the shows with their current status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				ids := env.Tracking.IDs(spec.set)
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					fmt.Fprintf(out, "nothing %s yet\n", spec.noun)
					return nil
				}
				if idsOnly {
					fmt.Fprintln(out, strings.Join(ids, "\n"))
					return nil
				}
				items, err := env.Fetcher.FetchMany(ctx, ids)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, animeTable(items))
				if missing := len(ids) - len(items); missing > 0 {
					fmt.Fprintf(out, "%d of %d shows could not be loaded\n", missing, len(ids))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print ids without fetching titles")
	return cmd
}

// parseIDs checks that every argument is a positive MyAnimeList id.
func parseIDs(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid id %q: want a positive number", arg)
		}
		ids = append(ids, strconv.Itoa(n))
	}
	return ids, nil
}
