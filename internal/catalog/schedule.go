package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

// DayFilter returns the lower-case weekday name the schedules endpoint
// expects.
func DayFilter(day time.Weekday) string {
	return strings.ToLower(day.String())
}

// Day is one cell of the week strip.
type Day struct {
	Date    time.Time
	Label   string // "Sun".."Sat"
	Number  int
	IsToday bool
}

// WeekDays returns the Sunday-first week containing anchor. today marks the
// matching cell.
func WeekDays(anchor, today time.Time) []Day {
	start := startOfDay(anchor).AddDate(0, 0, -int(anchor.Weekday()))
	days := make([]Day, 7)
	for i := range days {
		d := start.AddDate(0, 0, i)
		days[i] = Day{
			Date:    d,
			Label:   d.Weekday().String()[:3],
			Number:  d.Day(),
			IsToday: sameDay(d, today),
		}
	}
	return days
}

// WeekRange formats a week as "Oct 11 - Oct 17, 2026".
func WeekRange(days []Day) string {
	if len(days) == 0 {
		return ""
	}
	first, last := days[0].Date, days[len(days)-1].Date
	return fmt.Sprintf("%s - %s", first.Format("Jan 2"), last.Format("Jan 2, 2006"))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Schedule fetches the shows broadcasting on day, highest score first, with
// the tracked-only filter applied and membership flags set.
func (s *Service) Schedule(ctx context.Context, day time.Weekday) ([]Entry, error) {
	items, err := s.api.Schedule(ctx, DayFilter(day), s.sfw)
	if err != nil {
		return nil, fmt.Errorf("fetch %s schedule: %w", DayFilter(day), err)
	}
	items = Dedupe(items)
	SortByScore(items)
	return s.Decorate(tracking.Filter(s.store, items)), nil
}

// SortByScore orders items by descending score; missing scores sort as zero
// and ties keep their order.
func SortByScore(items []jikan.Anime) {
	slices.SortStableFunc(items, func(a, b jikan.Anime) int {
		as, bs := score(a), score(b)
		switch {
		case as > bs:
			return -1
		case as < bs:
			return 1
		default:
			return 0
		}
	})
}

func score(a jikan.Anime) float64 {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}
