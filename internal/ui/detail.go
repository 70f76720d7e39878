package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

const (
	maxDetailCharacters      = 12
	maxDetailRecommendations = 10
)

type detailState struct {
	gen      uint64
	id       string
	preview  jikan.Anime
	data     catalog.Detail
	loaded   bool
	loading  bool
	err      error
	viewport viewport.Model
}

type detailMsg struct {
	gen    uint64
	detail catalog.Detail
	err    error
}

func detailCmd(ctx context.Context, svc *catalog.Service, gen uint64, id string) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		d, err := svc.Detail(ctx, id)
		return detailMsg{gen: gen, detail: d, err: err}
	}
}

// openDetail switches to the detail view for id. preview fills the screen
// until the full record arrives.
func (m Model) openDetail(id string, preview jikan.Anime) (tea.Model, tea.Cmd) {
	if m.currentView != ViewDetail {
		m.returnView = m.currentView
	}
	m.currentView = ViewDetail
	m.detail.gen++
	m.detail.id = id
	m.detail.preview = preview
	m.detail.data = catalog.Detail{}
	m.detail.loaded = false
	m.detail.loading = true
	m.detail.err = nil
	m.updateDetailViewport()
	m.detail.viewport.GotoTop()
	return m, detailCmd(m.ctx, m.catalog, m.detail.gen, id)
}

func (m *Model) handleDetail(msg detailMsg) {
	if msg.gen != m.detail.gen {
		return
	}
	m.detail.loading = false
	if msg.err != nil {
		m.detail.err = msg.err
	} else {
		m.detail.data = msg.detail
		m.detail.loaded = true
	}
	m.updateDetailViewport()
}

// shown is the record the detail view currently displays.
func (d detailState) shown() jikan.Anime {
	if d.loaded {
		return d.data.Anime.Anime
	}
	return d.preview
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.detail.shown()
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.goBack()
	case key.Matches(msg, m.keys.Track):
		m.toggleMembership(tracking.Tracked, m.detail.id, a.DisplayTitle())
		m.updateDetailViewport()
	case key.Matches(msg, m.keys.WatchLater):
		m.toggleMembership(tracking.WatchLater, m.detail.id, a.DisplayTitle())
		m.updateDetailViewport()
	case key.Matches(msg, m.keys.Refresh):
		return m.openDetail(m.detail.id, a)
	case key.Matches(msg, m.keys.Down):
		m.detail.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.detail.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.detail.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detail.viewport.GotoBottom()
	default:
		switch msg.String() {
		case "ctrl+d", "pgdown":
			m.detail.viewport.HalfPageDown()
		case "ctrl+u", "pgup":
			m.detail.viewport.HalfPageUp()
		}
	}
	return m, nil
}

func (m *Model) updateDetailViewport() {
	if !m.ready || m.detail.id == "" {
		return
	}
	m.detail.viewport.SetContent(m.detailContent(max(m.detail.viewport.Width, 20)))
}

func (m Model) detailContent(width int) string {
	styles := m.theme.Styles()
	a := m.detail.shown()
	label := func(k, v string) string {
		if strings.TrimSpace(v) == "" {
			v = "-"
		}
		return styles.MutedText.Render(padRight(k, 12)) + styles.Text.Render(v)
	}
	heading := func(s string) string {
		return "\n" + styles.AccentText.Bold(true).Render(s)
	}

	var b []string
	b = append(b, styles.Text.Bold(true).Render(a.DisplayTitle()))
	if a.TitleJapanese != "" {
		b = append(b, styles.FaintText.Render(a.TitleJapanese))
	}
	if badges := m.badges(a, m.theme.FocusBg); badges != "" {
		b = append(b, badges)
	}
	switch {
	case m.detail.loading:
		b = append(b, styles.MutedText.Render(m.spinner.View()+" loading details..."))
	case m.detail.err != nil:
		b = append(b, styles.DangerText.Render(userMessage(m.detail.err)),
			styles.FaintText.Render("Press r to retry."))
	}

	score := formatScore(a.Score)
	if a.ScoredBy != nil && *a.ScoredBy > 0 {
		score += fmt.Sprintf(" (%s users)", humanize.Comma(int64(*a.ScoredBy)))
	}
	b = append(b, "",
		label("Score", score),
		label("Rank", formatRank(a.Rank)),
		label("Popularity", formatRank(a.Popularity)),
		label("Members", formatMembers(a.Members)),
		label("Format", strings.Join(nonEmpty(a.Type, formatEpisodes(a.Episodes), a.Duration), " · ")),
		label("Rating", a.Rating),
		label("Status", a.Status),
		label("Aired", a.Aired.String),
		label("Broadcast", a.Broadcast.String),
		label("Studios", entityNames(a.Studios)),
		label("Genres", strings.Join(a.GenreNames(), ", ")),
		label("Themes", entityNames(a.Themes)),
	)
	if a.Season != "" && a.Year != nil {
		b = append(b, label("Season", fmt.Sprintf("%s %d", titleCase(a.Season), *a.Year)))
	}

	if a.Synopsis != "" {
		b = append(b, heading("Synopsis"))
		for _, l := range wrap(a.Synopsis, width) {
			b = append(b, styles.Text.Render(l))
		}
	}

	if m.detail.loaded {
		chars := m.detail.data.Characters
		b = append(b, heading(fmt.Sprintf("Characters (%d)", len(chars))))
		if len(chars) == 0 {
			b = append(b, styles.FaintText.Render("No cast information."))
		}
		for i, c := range chars {
			if i == maxDetailCharacters {
				b = append(b, styles.FaintText.Render(fmt.Sprintf("+%d more", len(chars)-i)))
				break
			}
			line := styles.Text.Render(padRight(truncate(c.Character.Name, 28), 28)) + " " +
				styles.MutedText.Render(padRight(c.Role, 10))
			if va := c.JapaneseVoice(); va != "" {
				line += " " + styles.InfoText.Render(va)
			}
			b = append(b, line)
		}

		recs := m.detail.data.Recommendations
		b = append(b, heading(fmt.Sprintf("Recommendations (%d)", len(recs))))
		if len(recs) == 0 {
			b = append(b, styles.FaintText.Render("No recommendations yet."))
		}
		for i, r := range recs {
			if i == maxDetailRecommendations {
				b = append(b, styles.FaintText.Render(fmt.Sprintf("+%d more", len(recs)-i)))
				break
			}
			b = append(b, styles.Text.Render(truncate(r.Entry.Title, width-16))+" "+
				styles.FaintText.Render(humanize.Comma(int64(r.Votes))+" votes"))
		}
	}

	if len(a.Streaming) > 0 {
		b = append(b, heading("Streaming"))
		for _, s := range a.Streaming {
			b = append(b, styles.Text.Render(padRight(s.Name, 18))+" "+styles.FaintText.Render(s.URL))
		}
	}
	if a.URL != "" {
		b = append(b, "", styles.FaintText.Render(a.URL))
	}
	return strings.Join(b, "\n")
}

func (m Model) renderDetail(width, height int) string {
	title := truncate(m.detail.shown().DisplayTitle(), width-10)
	return m.renderTitledBox(title, m.detail.viewport.View(), width, height, true)
}

func entityNames(es []jikan.Entity) string {
	names := make([]string, 0, len(es))
	for _, e := range es {
		names = append(names, e.Name)
	}
	return strings.Join(nonEmpty(names...), ", ")
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
