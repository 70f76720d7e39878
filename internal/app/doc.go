// Package app is the composition root for shiki.
//
// Open loads config.toml, opens the log file and the SQLite store, and wires
// the Jikan client, the Fetcher, the catalog service, the tracked lists, and
// the auth client into an Env. The CLI subcommands use an Env directly; Run
// adds the background poller and hands everything to the TUI.
//
// # Polling
//
// StartPoller refreshes the airing and upcoming lists into a state.Store
// right away and then every poll_interval (default 10 minutes). Each list
// keeps its last good items when a poll fails. While both lists fail the wait
// doubles per consecutive failure, capped at 30 minutes; the UI reads the
// failure count from the snapshot to show its offline state.
//
// # Shutdown
//
// Cancelling the context stops the poller and the TUI. Env.Close waits for
// in-flight list writes before closing the database, so a toggle made just
// before quitting is not lost.
package app
