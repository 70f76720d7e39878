// Package config loads shiki's TOML configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/shiki/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. Blank values in an existing file keep their defaults
//
// # Keys
//
//	api_base_url     = "https://api.jikan.moe/v4"
//	request_timeout  = "10s"
//	rate_per_second  = 3
//	retry_attempts   = 3
//	retry_base_delay = "400ms"
//	poll_interval    = "10m"
//	sfw              = true
//	db_path          = "~/.local/share/shiki/shiki.db"
//	log_path         = "~/.local/state/shiki/shiki.log"
//	log_level        = "info"
//	auth_base_url    = "https://identitytoolkit.googleapis.com/v1"
//	auth_api_key     = ""
//
// Durations use Go duration syntax. Paths accept a leading ~. The resolved
// Config is checked with go-playground/validator; a file that parses but
// fails validation is an error, not a fallback to defaults.
//
// An empty auth_api_key disables sign-in; tracked and watch-later lists work
// the same either way.
package config
