package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{" WARN ", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComponent_PrefixesMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	Component(logger, "fetch").Warn("dropped", "id", "42")

	out := buf.String()
	if !strings.Contains(out, "fetch") || !strings.Contains(out, "dropped") || !strings.Contains(out, "id=42") {
		t.Fatalf("log output = %q, want prefix, message and key", out)
	}
}

func TestComponent_NilLoggerDiscards(t *testing.T) {
	if Component(nil, "x") == nil {
		t.Fatal("Component(nil) returned nil logger")
	}
}

func TestOpen_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shiki.log")

	logger, closer, err := Open(path, "info")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	logger.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("log file = %q, want hello", data)
	}
}

func TestOpen_EmptyPathErrors(t *testing.T) {
	if _, _, err := Open("  ", "info"); err == nil {
		t.Fatal("Open returned nil error for empty path")
	}
}
