package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/shiki/internal/logtail"
)

const logTailLines = 500

type logState struct {
	lines    []logtail.Line
	minLevel logtail.Level
	follow   bool
	err      error
	viewport viewport.Model
}

type logsMsg struct {
	lines []string
	err   error
}

func logsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logsMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.lines = logtail.ParseAll(msg.lines)
	}
	m.updateLogViewport()
}

var levelCycle = []logtail.Level{logtail.LevelDebug, logtail.LevelInfo, logtail.LevelWarn, logtail.LevelError}

func levelName(l logtail.Level) string {
	switch l {
	case logtail.LevelDebug:
		return "debug"
	case logtail.LevelInfo:
		return "info"
	case logtail.LevelWarn:
		return "warn"
	case logtail.LevelError:
		return "error"
	default:
		return "all"
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
			return m, logsCmd(m.logPath)
		}
	case key.Matches(msg, m.keys.CycleLevel):
		for i, l := range levelCycle {
			if l == m.logs.minLevel {
				m.logs.minLevel = levelCycle[(i+1)%len(levelCycle)]
				break
			}
		}
		m.updateLogViewport()
	case key.Matches(msg, m.keys.Refresh):
		return m, logsCmd(m.logPath)
	case key.Matches(msg, m.keys.Down):
		m.logs.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logs.follow = false
		m.logs.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
	default:
		switch msg.String() {
		case "ctrl+d", "pgdown":
			m.logs.viewport.HalfPageDown()
		case "ctrl+u", "pgup":
			m.logs.follow = false
			m.logs.viewport.HalfPageUp()
		}
	}
	return m, nil
}

func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	m.logs.viewport.SetContent(m.logContent())
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m Model) logContent() string {
	styles := m.theme.Styles()
	if m.logs.err != nil {
		return styles.DangerText.Render("Could not read log: " + m.logs.err.Error())
	}
	lines := logtail.AtLeast(m.logs.lines, m.logs.minLevel)
	if len(lines) == 0 {
		return styles.FaintText.Render("No log entries yet.")
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, m.formatLogLine(l, styles))
	}
	return strings.Join(out, "\n")
}

func (m Model) formatLogLine(l logtail.Line, styles Styles) string {
	if l.Level == logtail.LevelUnknown {
		return styles.FaintText.Render(l.Raw)
	}
	var levelStyle lipgloss.Style
	switch l.Level {
	case logtail.LevelError:
		levelStyle = styles.DangerText
	case logtail.LevelWarn:
		levelStyle = styles.WarningText
	case logtail.LevelInfo:
		levelStyle = styles.InfoText
	default:
		levelStyle = styles.FaintText
	}
	parts := make([]string, 0, 4)
	if !l.Time.IsZero() {
		parts = append(parts, styles.MutedText.Render(l.Time.Local().Format("15:04:05")))
	}
	parts = append(parts, levelStyle.Render(padRight(strings.ToUpper(levelName(l.Level)), 5)))
	if l.Component != "" {
		parts = append(parts, styles.AccentText.Render(l.Component))
	}
	parts = append(parts, styles.Text.Render(l.Message))
	return strings.Join(parts, " ")
}

func (m Model) renderLogs(width, height int) string {
	title := "Logs · " + levelName(m.logs.minLevel) + "+"
	if m.logs.follow {
		title += " · following"
	}
	if m.logPath == "" {
		return m.renderTitledBox(title, m.theme.Styles().FaintText.Render("Logging to a file is disabled."), width, height, true)
	}
	return m.renderTitledBox(title, m.logs.viewport.View(), width, height, true)
}
