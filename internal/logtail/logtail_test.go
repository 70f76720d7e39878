package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 12, 44, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		want  Line
	}{
		{
			name:  "full line",
			input: "2026-10-16T09:12:44Z WARN fetch: dropped id after retries id=42",
			want:  Line{Time: ts, Level: LevelWarn, Component: "fetch", Message: "dropped id after retries id=42"},
		},
		{
			name:  "short level without component",
			input: "2026-10-16T09:12:44Z ERRO failed to save list",
			want:  Line{Time: ts, Level: LevelError, Message: "failed to save list"},
		},
		{
			name:  "level only",
			input: "DEBU",
			want:  Line{Level: LevelDebug, Message: ""},
		},
		{
			name:  "free text",
			input: "  panic: something odd",
			want:  Line{Message: "panic: something odd"},
		},
		{
			name:  "empty line",
			input: "",
			want:  Line{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			tt.want.Raw = tt.input
			if !got.Time.Equal(tt.want.Time) {
				t.Fatalf("Time = %v, want %v", got.Time, tt.want.Time)
			}
			got.Time, tt.want.Time = time.Time{}, time.Time{}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	lines := ParseAll([]string{
		"2026-10-16T09:12:44Z DEBU jikan: request path=/anime/1",
		"2026-10-16T09:12:45Z INFO auth: signed in",
		"continuation text",
		"2026-10-16T09:12:46Z ERRO tracking: failed to save list",
	})
	got := AtLeast(lines, LevelInfo)
	if len(got) != 3 {
		t.Fatalf("AtLeast returned %d lines, want 3", len(got))
	}
	if got[0].Component != "auth" || got[1].Level != LevelUnknown || got[2].Level != LevelError {
		t.Fatalf("AtLeast = %+v", got)
	}
}
