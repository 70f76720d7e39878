package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("APIBaseURL = %q, want %q", cfg.APIBaseURL, defaultAPIBaseURL)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryBaseDelay != 400*time.Millisecond {
		t.Fatalf("retry = %d/%v, want 3/400ms", cfg.RetryAttempts, cfg.RetryBaseDelay)
	}
	if !cfg.SFW {
		t.Fatal("SFW = false, want true by default")
	}
	if !strings.HasPrefix(cfg.DBPath, home) {
		t.Fatalf("DBPath = %q, want it under HOME %q", cfg.DBPath, home)
	}
	if cfg.AuthEnabled() {
		t.Fatal("AuthEnabled() = true without api key")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_base_url = "  http://127.0.0.1:9999/v4/  "
request_timeout = "3s"
rate_per_second = 1.5
retry_attempts = 5
retry_base_delay = "250ms"
poll_interval = "1m"
sfw = false
db_path = "  ~/.shiki/lists.db  "
log_level = "DEBUG"
auth_api_key = " key-123 "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://127.0.0.1:9999/v4" {
		t.Fatalf("APIBaseURL = %q, want trailing slash trimmed", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 3*time.Second || cfg.RetryBaseDelay != 250*time.Millisecond || cfg.PollInterval != time.Minute {
		t.Fatalf("durations = %v/%v/%v", cfg.RequestTimeout, cfg.RetryBaseDelay, cfg.PollInterval)
	}
	if cfg.RatePerSecond != 1.5 || cfg.RetryAttempts != 5 {
		t.Fatalf("rate/attempts = %v/%d", cfg.RatePerSecond, cfg.RetryAttempts)
	}
	if cfg.SFW {
		t.Fatal("SFW = true, want false")
	}
	if cfg.DBPath != filepath.Join(home, ".shiki/lists.db") {
		t.Fatalf("DBPath = %q, want expanded under HOME", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if !cfg.AuthEnabled() || cfg.AuthAPIKey != "key-123" {
		t.Fatalf("AuthAPIKey = %q, want key-123", cfg.AuthAPIKey)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_base_url = "   "
retry_base_delay = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("APIBaseURL = %q, want %q", cfg.APIBaseURL, defaultAPIBaseURL)
	}
	if cfg.RetryBaseDelay != defaultRetryBaseDelay {
		t.Fatalf("RetryBaseDelay = %v, want %v", cfg.RetryBaseDelay, defaultRetryBaseDelay)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`api_base_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %v, want parse config error", err)
	}
}

func TestLoad_BadDurationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`poll_interval = "soon"`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "poll_interval") {
		t.Fatalf("Load error = %v, want poll_interval error", err)
	}
}

func TestLoad_ValidationRejectsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
retry_attempts = 0
log_level = "chatty"
api_base_url = "not a url"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load returned nil error, want validation error")
	}
	msg := err.Error()
	for _, want := range []string{"invalid config", "retryattempts", "loglevel must be one of", "apibaseurl must be a URL"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Load error = %q, want it to mention %q", msg, want)
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_KeepsMemoryDSN(t *testing.T) {
	got, err := expandPath(":memory:")
	if err != nil || got != ":memory:" {
		t.Fatalf("expandPath(:memory:) = %q, %v", got, err)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
