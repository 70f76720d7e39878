package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/tracking"
)

type profileState struct {
	gen      uint64
	data     catalog.Profile
	loaded   bool
	loading  bool
	err      error
	selected int
}

type profileMsg struct {
	gen     uint64
	profile catalog.Profile
	err     error
}

func (m *Model) beginProfile() tea.Cmd {
	m.profile.gen++
	m.profile.loading = true
	return m.profileCmd()
}

func (m Model) profileCmd() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	ctx, svc, gen, user := m.ctx, m.catalog, m.profile.gen, m.user
	return func() tea.Msg {
		p, err := svc.Profile(ctx, user)
		return profileMsg{gen: gen, profile: p, err: err}
	}
}

// handleProfile applies a profile unless a newer request superseded it. A
// partial airing list comes with an error; both are kept.
func (m *Model) handleProfile(msg profileMsg) {
	if msg.gen != m.profile.gen {
		return
	}
	m.profile.loading = false
	m.profile.loaded = true
	m.profile.data = msg.profile
	m.profile.err = msg.err
	m.profile.selected = min(m.profile.selected, max(len(msg.profile.AiringWatchLater)-1, 0))
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.profile.data.AiringWatchLater
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.profile.selected < len(items)-1 {
			m.profile.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.profile.selected > 0 {
			m.profile.selected--
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.beginProfile()
	case key.Matches(msg, m.keys.Open):
		if m.profile.selected < len(items) {
			a := items[m.profile.selected]
			return m.openDetail(a.ID(), a)
		}
	case key.Matches(msg, m.keys.WatchLater):
		if m.profile.selected < len(items) {
			a := items[m.profile.selected]
			m.toggleMembership(tracking.WatchLater, a.ID(), a.DisplayTitle())
		}
	}
	return m, nil
}

func (m Model) renderProfile(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	p := m.profile.data
	if !m.profile.loaded {
		p = catalog.Profile{
			SignedIn:    m.user != nil,
			DisplayName: catalog.DisplayName(m.user),
		}
		if m.tracked != nil {
			p.TrackedCount = m.tracked.Len(tracking.Tracked)
			p.WatchLaterCount = m.tracked.Len(tracking.WatchLater)
		}
	}
	label := func(k, v string) string {
		return styles.MutedText.Render(padRight(k, 14)) + styles.Text.Render(v)
	}

	lines := []string{styles.Text.Bold(true).Render(p.DisplayName)}
	if p.SignedIn {
		lines = append(lines, styles.MutedText.Render(p.Email))
		if p.AvatarURL != "" {
			lines = append(lines, styles.FaintText.Render(truncate(p.AvatarURL, width-4)))
		}
	} else {
		hint := "Press L to sign in."
		if m.auth == nil || !m.auth.Enabled() {
			hint = "Set auth_api_key in config.toml to enable sign-in."
		}
		lines = append(lines, styles.FaintText.Render(hint))
	}
	lines = append(lines, "",
		label("Tracked", fmt.Sprint(p.TrackedCount)),
		label("Watch later", fmt.Sprint(p.WatchLaterCount)),
	)

	if p.SignedIn {
		lines = append(lines, "", styles.AccentText.Bold(true).Render(
			fmt.Sprintf("Airing from watch later (%d)", len(p.AiringWatchLater))))
		switch {
		case m.profile.loading && len(p.AiringWatchLater) == 0:
			lines = append(lines, styles.MutedText.Render(m.spinner.View()+" loading..."))
		case len(p.AiringWatchLater) == 0:
			lines = append(lines, styles.FaintText.Render("Nothing on your watch-later list is airing."))
		}
		for i, a := range p.AiringWatchLater {
			lines = append(lines, m.renderAnimeRow(a, width-4, i == m.profile.selected, m.theme.FocusBg))
		}
	}
	if m.profile.err != nil {
		lines = append(lines, "", styles.WarningText.Render("Some shows could not be loaded: "+classifyAPIError(m.profile.err)))
	}

	return m.renderTitledBox("Profile", strings.Join(lines, "\n"), width, height, true)
}
