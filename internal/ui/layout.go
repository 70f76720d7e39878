package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

// renderTitledBox draws content in a box whose top border carries title:
// ┌─── Title ───┐. A focused box uses the focus border and background.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	borderColor, bgColor := m.theme.Border, m.theme.SurfaceAlt
	if focused {
		borderColor, bgColor = m.theme.BorderFocus, m.theme.FocusBg
	}
	bg := NewBgStyle(bgColor)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColor))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	inner := max(width-2, 1)
	title = truncate(title, max(inner-4, 1))
	titleLen := lipgloss.Width(title)
	left := max((inner-titleLen-2)/2, 0)
	right := max(inner-titleLen-2-left, 0)

	top := bg.Render("┌"+strings.Repeat("─", left), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", right)+"┐", borderStyle)
	bottom := bg.Render("└"+strings.Repeat("─", inner)+"┘", borderStyle)

	body := lipgloss.NewStyle().Width(inner).MaxWidth(inner).Background(lipgloss.Color(bgColor))
	lines := strings.Split(content, "\n")
	rows := max(height-2, 0)
	out := make([]string, 0, rows+2)
	out = append(out, top)
	for i := 0; i < rows; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out = append(out, bg.Render("│", borderStyle)+body.Render(line)+bg.Render("│", borderStyle))
	}
	out = append(out, bottom)
	return strings.Join(out, "\n")
}

// scrollWindow returns the [start, end) slice of n rows to show in height
// lines so that selected stays visible.
func scrollWindow(n, selected, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := selected - height/2
	start = max(min(start, n-height), 0)
	return start, start + height
}

// badges returns the tags shown after a title: status plus list membership.
func (m Model) badges(a jikan.Anime, bgColor string) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(bgColor)
	var parts []string
	switch {
	case a.IsAiring():
		parts = append(parts, styles.Badge("airing").Render("AIR"))
	case a.Status == "Not yet aired":
		parts = append(parts, styles.Badge("upcoming").Render("NEW"))
	}
	if m.tracked != nil {
		id := a.ID()
		if m.tracked.Contains(tracking.Tracked, id) {
			parts = append(parts, styles.Badge("tracked").Render("TRK"))
		}
		if m.tracked.Contains(tracking.WatchLater, id) {
			parts = append(parts, styles.Badge("later").Render("LTR"))
		}
	}
	return bg.Join(parts, " ")
}

// renderAnimeRow formats one list row: score, title, badges.
func (m Model) renderAnimeRow(a jikan.Anime, width int, selected bool, bgColor string) string {
	if selected {
		bgColor = m.theme.SelectionBg
	}
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	scoreStyle, titleStyle := styles.WarningText, styles.Text
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		scoreStyle, titleStyle = sel, sel.Bold(true)
	}
	badges := m.badges(a, bgColor)
	score := formatScore(a.Score)
	titleWidth := max(width-lipgloss.Width(score)-lipgloss.Width(badges)-3, 8)

	line := bg.Render(score, scoreStyle) + bg.Space() +
		bg.Render(padRight(truncate(a.DisplayTitle(), titleWidth), titleWidth), titleStyle) + bg.Space() + badges
	return bg.FillLine(line, width)
}

// renderSummary is the side pane for the selected show on list views.
func (m Model) renderSummary(a jikan.Anime, width int) string {
	styles := m.theme.Styles()
	label := func(k, v string) string {
		return styles.MutedText.Render(padRight(k, 10)) + styles.Text.Render(v)
	}
	lines := []string{
		styles.AccentText.Bold(true).Render(truncate(a.DisplayTitle(), width)),
	}
	if a.Title != "" && a.Title != a.DisplayTitle() {
		lines = append(lines, styles.FaintText.Render(truncate(a.Title, width)))
	}
	lines = append(lines, "",
		label("Score", formatScore(a.Score)),
		label("Episodes", formatEpisodes(a.Episodes)),
		label("Members", formatMembers(a.Members)),
		label("Status", a.Status),
	)
	if a.Broadcast.String != "" {
		lines = append(lines, label("Airs", a.Broadcast.String))
	}
	if genres := a.GenreNames(); len(genres) > 0 {
		lines = append(lines, label("Genres", truncate(strings.Join(genres, ", "), max(width-10, 8))))
	}
	if a.Synopsis != "" {
		lines = append(lines, "")
		for _, l := range wrap(a.Synopsis, width) {
			lines = append(lines, styles.Text.Render(l))
		}
	}
	return strings.Join(lines, "\n")
}

// splitPanes lays a list and a summary side by side, the list taking 55%.
func (m Model) splitPanes(listTitle, list, sideTitle, side string, width, height int) string {
	listWidth := width * 55 / 100
	sideWidth := width - listWidth
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderTitledBox(listTitle, list, listWidth, height, true),
		m.renderTitledBox(sideTitle, side, sideWidth, height, false),
	)
}
