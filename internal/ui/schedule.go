package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/tracking"
)

type scheduleState struct {
	days     []catalog.Day
	day      int // index into days
	gen      uint64
	entries  []catalog.Entry
	loading  bool
	loaded   bool
	err      error
	selected int
}

func newScheduleState(now time.Time) scheduleState {
	return scheduleState{
		days: catalog.WeekDays(now, now),
		day:  int(now.Weekday()),
	}
}

type scheduleMsg struct {
	gen     uint64
	entries []catalog.Entry
	err     error
}

func (s scheduleState) weekday() time.Weekday {
	if s.day < 0 || s.day >= len(s.days) {
		return time.Sunday
	}
	return s.days[s.day].Date.Weekday()
}

// beginSchedule starts a fetch for the selected day. Responses for earlier
// generations are dropped when they arrive.
func (m *Model) beginSchedule() tea.Cmd {
	m.schedule.gen++
	m.schedule.loading = true
	m.schedule.err = nil
	return m.scheduleCmd()
}

func (m Model) scheduleCmd() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	ctx, svc, gen, day := m.ctx, m.catalog, m.schedule.gen, m.schedule.weekday()
	return func() tea.Msg {
		entries, err := svc.Schedule(ctx, day)
		return scheduleMsg{gen: gen, entries: entries, err: err}
	}
}

func (m *Model) handleSchedule(msg scheduleMsg) {
	if msg.gen != m.schedule.gen {
		return
	}
	m.schedule.loading = false
	m.schedule.loaded = true
	if msg.err != nil {
		m.schedule.err = msg.err
		return
	}
	m.schedule.entries = msg.entries
	m.schedule.selected = min(m.schedule.selected, max(len(msg.entries)-1, 0))
}

func (m Model) selectedScheduleEntry() (catalog.Entry, bool) {
	if m.schedule.selected < 0 || m.schedule.selected >= len(m.schedule.entries) {
		return catalog.Entry{}, false
	}
	return m.schedule.entries[m.schedule.selected], true
}

func (m Model) handleScheduleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.schedule.entries)
	switch {
	case key.Matches(msg, m.keys.PrevDay):
		m.schedule.day = (m.schedule.day + len(m.schedule.days) - 1) % len(m.schedule.days)
		m.schedule.selected = 0
		return m, m.beginSchedule()
	case key.Matches(msg, m.keys.NextDay):
		m.schedule.day = (m.schedule.day + 1) % len(m.schedule.days)
		m.schedule.selected = 0
		return m, m.beginSchedule()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.beginSchedule()
	case key.Matches(msg, m.keys.Down):
		if m.schedule.selected < n-1 {
			m.schedule.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.schedule.selected > 0 {
			m.schedule.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.schedule.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.schedule.selected = max(n-1, 0)
	case key.Matches(msg, m.keys.Open):
		if e, ok := m.selectedScheduleEntry(); ok {
			return m.openDetail(e.ID(), e.Anime)
		}
	case key.Matches(msg, m.keys.Track):
		if e, ok := m.selectedScheduleEntry(); ok {
			m.toggleMembership(tracking.Tracked, e.ID(), e.DisplayTitle())
			if m.tracked != nil && m.tracked.ShowTrackedOnly() {
				return m, m.beginSchedule()
			}
		}
	case key.Matches(msg, m.keys.WatchLater):
		if e, ok := m.selectedScheduleEntry(); ok {
			m.toggleMembership(tracking.WatchLater, e.ID(), e.DisplayTitle())
		}
	}
	return m, nil
}

// renderWeekStrip draws the Sunday-first day cells with today and the
// selected day marked.
func (m Model) renderWeekStrip(width int) string {
	styles := m.theme.Styles()
	cellWidth := max(width/7, 6)
	cells := make([]string, 0, len(m.schedule.days))
	for i, d := range m.schedule.days {
		label := d.Label + " " + strconv.Itoa(d.Number)
		style := styles.MutedText
		if d.IsToday {
			style = styles.AccentText
		}
		if i == m.schedule.day {
			style = styles.Selected.Bold(true)
		}
		cells = append(cells, style.Width(cellWidth).Align(lipgloss.Center).Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) renderSchedule(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	listWidth := width*55/100 - 2

	lines := []string{
		styles.FaintText.Render(catalog.WeekRange(m.schedule.days)),
		m.renderWeekStrip(listWidth),
		"",
	}
	header := len(lines)
	switch {
	case m.schedule.loading && len(m.schedule.entries) == 0:
		lines = append(lines, styles.MutedText.Render(m.spinner.View()+" loading schedule..."))
	case m.schedule.err != nil:
		lines = append(lines, styles.DangerText.Render(userMessage(m.schedule.err)),
			styles.FaintText.Render("Press r to retry."))
	case len(m.schedule.entries) == 0 && m.tracked != nil && m.tracked.ShowTrackedOnly():
		lines = append(lines, styles.FaintText.Render("None of your tracked shows air this day."))
	case len(m.schedule.entries) == 0:
		lines = append(lines, styles.FaintText.Render("Nothing scheduled."))
	}

	bodyHeight := max(height-2-header, 1)
	start, end := scrollWindow(len(m.schedule.entries), m.schedule.selected, bodyHeight)
	for i := start; i < end; i++ {
		e := m.schedule.entries[i]
		lines = append(lines, m.renderAnimeRow(e.Anime, listWidth, i == m.schedule.selected, m.theme.FocusBg))
	}

	var side string
	if e, ok := m.selectedScheduleEntry(); ok {
		side = m.renderSummary(e.Anime, width-width*55/100-4)
	}
	title := "Schedule · " + m.schedule.weekday().String()
	if m.tracked != nil && m.tracked.ShowTrackedOnly() {
		title += " · tracked only"
	}
	return m.splitPanes(title, strings.Join(lines, "\n"), "Summary", side, width, height)
}
