package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// truncate shortens value to limit runes, ending in "..." when cut.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := len([]rune(s))
	if width <= 0 || n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func formatScore(score *float64) string {
	if score == nil || *score == 0 {
		return "  -  "
	}
	return fmt.Sprintf("★%4.2f", *score)
}

func formatEpisodes(eps *int) string {
	if eps == nil || *eps == 0 {
		return "? eps"
	}
	if *eps == 1 {
		return "1 ep"
	}
	return fmt.Sprintf("%d eps", *eps)
}

func formatMembers(members *int) string {
	if members == nil {
		return "-"
	}
	return humanize.Comma(int64(*members))
}

func formatRank(rank *int) string {
	if rank == nil || *rank == 0 {
		return "-"
	}
	return "#" + humanize.Comma(int64(*rank))
}

// formatUpdated renders t as "15:04:05 (3 minutes ago)".
func formatUpdated(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if now.Sub(t) < time.Minute {
		return t.Format("15:04:05") + " (now)"
	}
	return t.Format("15:04:05") + " (" + humanize.RelTime(t, now, "ago", "from now") + ")"
}

// wrap breaks text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len([]rune(line))+1+len([]rune(w)) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}
