package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

// renderHeader renders the status bar: logo, view, list counts, account,
// API health, and the last refresh time.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("shiki", styles.Logo),
		bg.Render(m.currentView.String(), styles.AccentText.Bold(true)),
	}

	if m.tracked != nil {
		if m.tracked.Loading() {
			parts = append(parts, bg.Render("Loading lists...", styles.WarningText))
		} else {
			parts = append(parts,
				bg.Render("Tracked:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprint(m.tracked.Len(tracking.Tracked)), styles.Text),
				bg.Render("Later:", styles.MutedText)+bg.Space()+
					bg.Render(fmt.Sprint(m.tracked.Len(tracking.WatchLater)), styles.Text),
			)
		}
		if m.tracked.ShowTrackedOnly() {
			parts = append(parts, bg.Render("TRACKED ONLY", styles.InfoText.Bold(true)))
		}
	}

	if m.user != nil {
		parts = append(parts, bg.Render("● "+truncate(catalog.DisplayName(m.user), 24), styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("○ "+catalog.GuestName, styles.FaintText))
	}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts,
			bg.Render("API "+classifyAPIError(m.snapshot.LastError), styles.DangerText),
			bg.Render("Retrying...", styles.WarningText.Bold(true)))
	case m.snapshot.LastError != nil:
		parts = append(parts, bg.Render("API "+classifyAPIError(m.snapshot.LastError), styles.WarningText))
	}

	if ts := formatUpdated(m.lastUpdated, m.now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.flash.text != "" {
		style := styles.SuccessText
		if m.flash.isErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(truncate(m.flash.text, 60), style))
	}

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(bg.Join(parts, "  "))
}

// classifyAPIError returns a short label for an API failure.
func classifyAPIError(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *jikan.StatusError
	var netErr net.Error
	switch {
	case errors.As(err, &statusErr) && statusErr.Status == http.StatusTooManyRequests:
		return "RATE LIMITED"
	case errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound:
		return "NOT FOUND"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("HTTP %d", statusErr.Status)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "PAUSED"
	case errors.Is(err, jikan.ErrNoData):
		return "NO DATA"
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "TIMEOUT"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "network is unreachable"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	filter := "Tracked only"
	if m.tracked != nil && m.tracked.ShowTrackedOnly() {
		filter = "Show all"
	}
	account := cmd{"L", "Sign in"}
	if m.user != nil {
		account = cmd{"O", "Sign out"}
	}

	var commands []cmd
	switch m.currentView {
	case ViewSchedule:
		commands = []cmd{{"[/]", "Day"}, {"enter", "Open"}, {"t", "Track"}, {"w", "Later"}, {"f", filter}, {"r", "Refresh"}, {"tab", "Views"}}
	case ViewDetail:
		commands = []cmd{{"esc", "Back"}, {"t", "Track"}, {"w", "Later"}, {"j/k", "Scroll"}, {"r", "Reload"}}
	case ViewProfile:
		commands = []cmd{{"enter", "Open"}, {"w", "Later"}, {"r", "Refresh"}, account, {"tab", "Views"}}
	case ViewAccount:
		commands = []cmd{{"enter", "Submit"}, {"tab", "Next field"}, {"ctrl+n", "Switch mode"}, {"esc", "Cancel"}}
	case ViewLogs:
		follow := "Follow"
		if m.logs.follow {
			follow = "Pause"
		}
		commands = []cmd{{"space", follow}, {"v", "Level"}, {"j/k", "Scroll"}, {"tab", "Views"}}
	default:
		commands = []cmd{{"enter", "Open"}, {"t", "Track"}, {"w", "Later"}, {"f", filter}, account, {"tab", "Views"}}
	}
	commands = append(commands, cmd{"?", "More"})

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+bg.Render(":", styles.FaintText)+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+bg.Render(":", styles.FaintText)+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
