package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything shiki reads from config.toml after defaults and
// path expansion have been applied.
type Config struct {
	APIBaseURL     string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gt=0"`
	RatePerSecond  float64       `validate:"gt=0,lte=60"`
	RetryAttempts  int           `validate:"gte=1,lte=10"`
	RetryBaseDelay time.Duration `validate:"gte=0"`
	PollInterval   time.Duration `validate:"gt=0"`
	SFW            bool
	DBPath         string `validate:"required"`
	LogPath        string `validate:"required"`
	LogLevel       string `validate:"oneof=debug info warn error"`
	AuthBaseURL    string `validate:"required,url"`
	AuthAPIKey     string
}

const (
	defaultConfigPath     = "~/.config/shiki/config.toml"
	defaultAPIBaseURL     = "https://api.jikan.moe/v4"
	defaultRequestTimeout = 10 * time.Second
	defaultRatePerSecond  = 3
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 400 * time.Millisecond
	defaultPollInterval   = 10 * time.Minute
	defaultDBPath         = "~/.local/share/shiki/shiki.db"
	defaultLogPath        = "~/.local/state/shiki/shiki.log"
	defaultLogLevel       = "info"
	defaultAuthBaseURL    = "https://identitytoolkit.googleapis.com/v1"
)

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBaseURL:     defaultAPIBaseURL,
		RequestTimeout: defaultRequestTimeout,
		RatePerSecond:  defaultRatePerSecond,
		RetryAttempts:  defaultRetryAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
		PollInterval:   defaultPollInterval,
		SFW:            true,
		DBPath:         mustExpand(defaultDBPath),
		LogPath:        mustExpand(defaultLogPath),
		LogLevel:       defaultLogLevel,
		AuthBaseURL:    defaultAuthBaseURL,
	}
}

type rawConfig struct {
	APIBaseURL     string   `toml:"api_base_url"`
	RequestTimeout string   `toml:"request_timeout"`
	RatePerSecond  *float64 `toml:"rate_per_second"`
	RetryAttempts  *int     `toml:"retry_attempts"`
	RetryBaseDelay string   `toml:"retry_base_delay"`
	PollInterval   string   `toml:"poll_interval"`
	SFW            *bool    `toml:"sfw"`
	DBPath         string   `toml:"db_path"`
	LogPath        string   `toml:"log_path"`
	LogLevel       string   `toml:"log_level"`
	AuthBaseURL    string   `toml:"auth_base_url"`
	AuthAPIKey     string   `toml:"auth_api_key"`
}

// Load locates and parses the shiki config, falling back to defaults when the
// file is missing. Blank values keep their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (raw rawConfig) apply(cfg *Config) error {
	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.AuthBaseURL); v != "" {
		cfg.AuthBaseURL = strings.TrimRight(v, "/")
	}
	cfg.AuthAPIKey = strings.TrimSpace(raw.AuthAPIKey)

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"retry_base_delay", raw.RetryBaseDelay, &cfg.RetryBaseDelay},
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.value)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dest = parsed
	}

	if raw.RatePerSecond != nil {
		cfg.RatePerSecond = *raw.RatePerSecond
	}
	if raw.RetryAttempts != nil {
		cfg.RetryAttempts = *raw.RetryAttempts
	}
	if raw.SFW != nil {
		cfg.SFW = *raw.SFW
	}
	if v := strings.TrimSpace(raw.DBPath); v != "" {
		cfg.DBPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	return nil
}

// Validate checks field ranges and formats.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", formatValidationError(err))
	}
	return nil
}

// AuthEnabled reports whether an identity provider key is configured.
func (c Config) AuthEnabled() bool {
	return strings.TrimSpace(c.AuthAPIKey) != ""
}

func formatValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "url":
			msgs = append(msgs, field+" must be a URL")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == ":memory:" {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
