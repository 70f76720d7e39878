package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/fetch"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

const (
	sectionContinue = "Continue Watching"
	sectionAiring   = "Airing Now"
	sectionUpcoming = "Upcoming"
)

type homeState struct {
	selected int

	// requestedIDs is the watch-later list the newest batch was started
	// for.
	requestedIDs    []string
	continueItems   []jikan.Anime
	continueLoading bool
	continueErr     error
}

type homeRow struct {
	section string
	anime   jikan.Anime
}

type continueMsg struct {
	result catalog.ContinueResult
	err    error
}

func continueCmd(ctx context.Context, svc *catalog.Service, loader *fetch.Loader) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.ContinueWatching(ctx, loader)
		return continueMsg{result: res, err: err}
	}
}

// handleContinue applies a watch-later batch unless a newer one has begun.
func (m *Model) handleContinue(msg continueMsg) {
	if msg.err != nil {
		m.home.continueLoading = false
		m.home.continueErr = msg.err
		return
	}
	if m.loader.Stale(msg.result.Gen) {
		return
	}
	m.home.continueLoading = false
	if !msg.result.Committed {
		return
	}
	m.home.continueErr = nil
	m.home.continueItems = msg.result.Items
	m.clampHomeSelection()
}

// homeRows flattens the three home sections into one selectable list. The
// tracked-only filter applies to the seasonal lists.
func (m Model) homeRows() []homeRow {
	var rows []homeRow
	add := func(section string, items []jikan.Anime) {
		for _, a := range items {
			rows = append(rows, homeRow{section: section, anime: a})
		}
	}
	add(sectionContinue, m.home.continueItems)
	airing, upcoming := m.snapshot.Airing.Items, m.snapshot.Upcoming.Items
	if m.tracked != nil {
		airing = tracking.Filter(m.tracked, airing)
		upcoming = tracking.Filter(m.tracked, upcoming)
	}
	add(sectionAiring, airing)
	add(sectionUpcoming, upcoming)
	return rows
}

func (m *Model) clampHomeSelection() {
	n := len(m.homeRows())
	if m.home.selected >= n {
		m.home.selected = max(n-1, 0)
	}
}

func (m Model) selectedHomeRow() (homeRow, bool) {
	rows := m.homeRows()
	if m.home.selected < 0 || m.home.selected >= len(rows) {
		return homeRow{}, false
	}
	return rows[m.home.selected], true
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.homeRows())
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.home.selected < n-1 {
			m.home.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.home.selected > 0 {
			m.home.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.home.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.home.selected = max(n-1, 0)
	case key.Matches(msg, m.keys.Open):
		if row, ok := m.selectedHomeRow(); ok {
			return m.openDetail(row.anime.ID(), row.anime)
		}
	case key.Matches(msg, m.keys.Track):
		if row, ok := m.selectedHomeRow(); ok {
			m.toggleMembership(tracking.Tracked, row.anime.ID(), row.anime.DisplayTitle())
			m.clampHomeSelection()
		}
	case key.Matches(msg, m.keys.WatchLater):
		if row, ok := m.selectedHomeRow(); ok {
			m.toggleMembership(tracking.WatchLater, row.anime.ID(), row.anime.DisplayTitle())
		}
	}
	return m, nil
}

func (m Model) renderHome(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	listWidth := width*55/100 - 2
	rows := m.homeRows()

	var lines []string
	lineOfSelected := 0
	emit := func(name, status string) {
		lines = append(lines, styles.AccentText.Bold(true).Render(name))
		if status != "" {
			lines = append(lines, "  "+status)
		}
	}
	sectionStatus := func(name string, count int) string {
		switch name {
		case sectionContinue:
			switch {
			case m.home.continueLoading && count == 0:
				return styles.MutedText.Render(m.spinner.View() + " loading watch later...")
			case m.tracked != nil && m.tracked.Loading():
				return styles.MutedText.Render("loading lists...")
			case count == 0 && m.home.continueErr != nil:
				return styles.DangerText.Render(userMessage(m.home.continueErr))
			case count == 0:
				return styles.FaintText.Render("Nothing saved yet. Press w on a show to add it.")
			}
		case sectionAiring:
			return m.seasonStatus(m.snapshot.Airing.Err, m.snapshot.Airing.HasData, count, styles)
		case sectionUpcoming:
			return m.seasonStatus(m.snapshot.Upcoming.Err, m.snapshot.Upcoming.HasData, count, styles)
		}
		return ""
	}
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.section]++
	}

	for _, name := range []string{sectionContinue, sectionAiring, sectionUpcoming} {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		emit(fmt.Sprintf("%s (%d)", name, counts[name]), sectionStatus(name, counts[name]))
		for i, r := range rows {
			if r.section != name {
				continue
			}
			if i == m.home.selected {
				lineOfSelected = len(lines)
			}
			lines = append(lines, m.renderAnimeRow(r.anime, listWidth, i == m.home.selected, m.theme.FocusBg))
		}
	}

	start, end := scrollWindow(len(lines), lineOfSelected, height-2)
	list := strings.Join(lines[start:end], "\n")

	var side string
	if row, ok := m.selectedHomeRow(); ok {
		side = m.renderSummary(row.anime, width-width*55/100-4)
	}
	title := "Home"
	if m.tracked != nil && m.tracked.ShowTrackedOnly() {
		title = "Home · tracked only"
	}
	return m.splitPanes(title, list, "Summary", side, width, height)
}

// seasonStatus is the placeholder line shown under an empty seasonal list.
func (m Model) seasonStatus(err error, hasData bool, count int, styles Styles) string {
	switch {
	case err != nil && !hasData:
		return styles.DangerText.Render("Could not load: " + classifyAPIError(err))
	case err != nil:
		return styles.WarningText.Render("Showing cached list: " + classifyAPIError(err))
	case !hasData:
		return styles.MutedText.Render(m.spinner.View() + " loading...")
	case count == 0 && m.tracked != nil && m.tracked.ShowTrackedOnly():
		return styles.FaintText.Render("No tracked shows here.")
	case count == 0:
		return styles.FaintText.Render("Nothing listed.")
	}
	return ""
}
