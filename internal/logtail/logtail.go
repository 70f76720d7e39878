package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file is not an error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Level is the severity parsed from a line.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Line is one parsed log line.
type Line struct {
	Raw       string
	Time      time.Time
	Level     Level
	Component string
	Message   string
}

var levelTokens = map[string]Level{
	"DEBU": LevelDebug, "DEBUG": LevelDebug,
	"INFO": LevelInfo,
	"WARN": LevelWarn, "WARNING": LevelWarn,
	"ERRO": LevelError, "ERROR": LevelError, "FATA": LevelError, "FATAL": LevelError,
}

// Parse splits a line written by the app logger:
//
//	2026-10-16T09:12:44+09:00 WARN fetch: dropped id after retries id=42
//
// Lines that do not follow the layout come back with only Raw and Message
// set.
func Parse(raw string) Line {
	line := Line{Raw: raw, Message: strings.TrimSpace(raw)}
	rest := line.Message

	if ts, after, ok := strings.Cut(rest, " "); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			line.Time = t
			rest = strings.TrimSpace(after)
		}
	}
	if tok, after, ok := strings.Cut(rest, " "); ok {
		if lvl, known := levelTokens[tok]; known {
			line.Level = lvl
			rest = strings.TrimSpace(after)
		}
	} else if lvl, known := levelTokens[rest]; known {
		line.Level = lvl
		rest = ""
	}
	if line.Level == LevelUnknown {
		return line
	}
	if word, after, ok := strings.Cut(rest, " "); ok && strings.HasSuffix(word, ":") && len(word) > 1 {
		line.Component = strings.TrimSuffix(word, ":")
		rest = strings.TrimSpace(after)
	}
	line.Message = rest
	return line
}

// ParseAll parses every line.
func ParseAll(raw []string) []Line {
	out := make([]Line, len(raw))
	for i, r := range raw {
		out[i] = Parse(r)
	}
	return out
}

// AtLeast keeps lines at or above min. Unparsed lines are kept so
// continuation output is not lost.
func AtLeast(lines []Line, min Level) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Level == LevelUnknown || l.Level >= min {
			out = append(out, l)
		}
	}
	return out
}
