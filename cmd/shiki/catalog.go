package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/five82/shiki/internal/app"
	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/jikan"
)

func newScheduleCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [day]",
		Short: "Show what airs on a weekday (default today)",
		Long: `Show the shows broadcasting on one weekday, highest score first.

The day may be a weekday name or abbreviation, "today", or "tomorrow". The
tracked-only filter from the interactive view applies here too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().Weekday()
			if len(args) == 1 {
				var err error
				if day, err = parseWeekday(args[0], time.Now()); err != nil {
					return err
				}
			}
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				entries, err := env.Catalog.Schedule(ctx, day)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: %d shows\n", day, len(entries))
				if len(entries) > 0 {
					fmt.Fprintln(out, entryTable(entries))
				}
				return nil
			})
		},
	}
}

func newSeasonCmd(flags *globalFlags) *cobra.Command {
	var upcoming bool
	cmd := &cobra.Command{
		Use:   "season",
		Short: "List this season's airing shows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				home := env.Catalog.Home(ctx)
				section := home.Airing
				if upcoming {
					section = home.Upcoming
				}
				if section.Err != nil {
					return section.Err
				}
				fmt.Fprintln(cmd.OutOrStdout(), entryTable(env.Catalog.Decorate(section.Items)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "list next season's shows instead")
	return cmd
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withEnv(cmd, flags, func(ctx context.Context, env *app.Env) error {
				d, err := env.Catalog.Detail(ctx, ids[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatDetail(d))
				return nil
			})
		},
	}
}

// parseWeekday accepts full or three-letter weekday names plus today and
// tomorrow relative to now.
func parseWeekday(s string, now time.Time) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "today":
		return now.Weekday(), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Weekday(), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}

func animeTable(items []jikan.Anime) string {
	t := newTable("ID", "TITLE", "STATUS", "EPS", "SCORE")
	for _, a := range items {
		t.Row(a.ID(), a.DisplayTitle(), a.Status, episodes(a.Episodes), score(a.Score))
	}
	return t.String()
}

func entryTable(entries []catalog.Entry) string {
	t := newTable("ID", "TITLE", "SCORE", "MEMBERS", "")
	for _, e := range entries {
		t.Row(e.ID(), e.DisplayTitle(), score(e.Score), members(e.Members), marks(e))
	}
	return t.String()
}

func marks(e catalog.Entry) string {
	var m []string
	if e.Tracked {
		m = append(m, "tracked")
	}
	if e.WatchLater {
		m = append(m, "later")
	}
	return strings.Join(m, ",")
}

func score(s *float64) string {
	if s == nil || *s == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", *s)
}

func episodes(n *int) string {
	if n == nil || *n == 0 {
		return "?"
	}
	return fmt.Sprint(*n)
}

func members(n *int) string {
	if n == nil {
		return "-"
	}
	return humanize.Comma(int64(*n))
}

func formatDetail(d catalog.Detail) string {
	a := d.Anime
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%s)\n", a.DisplayTitle(), a.ID())
	if a.TitleJapanese != "" {
		fmt.Fprintf(&b, "%s\n", a.TitleJapanese)
	}
	b.WriteString("\n")
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%-11s %s\n", k, v)
		}
	}
	field("Status", a.Status)
	field("Type", a.Type)
	field("Episodes", episodes(a.Episodes))
	field("Score", score(a.Score))
	field("Members", members(a.Members))
	field("Broadcast", a.Broadcast.String)
	field("Aired", a.Aired.String)
	field("Genres", strings.Join(a.GenreNames(), ", "))
	var lists []string
	if a.Tracked {
		lists = append(lists, "tracked")
	}
	if a.WatchLater {
		lists = append(lists, "watch later")
	}
	field("Lists", strings.Join(lists, ", "))

	if s := strings.TrimSpace(a.Synopsis); s != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(78).Render(s) + "\n")
	}
	if len(d.Characters) > 0 {
		b.WriteString("\nCharacters\n")
		for i, c := range d.Characters {
			if i == 10 {
				break
			}
			line := "  " + c.Character.Name
			if va := c.JapaneseVoice(); va != "" {
				line += " (" + va + ")"
			}
			b.WriteString(line + "\n")
		}
	}
	if len(d.Recommendations) > 0 {
		b.WriteString("\nRecommended\n")
		for i, r := range d.Recommendations {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  %s  %s\n", r.ID(), r.Entry.Title)
		}
	}
	return b.String()
}
