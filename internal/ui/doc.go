// Package ui is the terminal interface, built on Bubble Tea.
//
// Model is a single tea.Model. Each screen keeps its own state struct
// (homeState, scheduleState, detailState, profileState, accountState,
// logState) and its own key handler and renderer in a file of the same name.
// Slow work runs in tea.Cmds; responses carry the generation they were
// started under and are dropped when a newer request has begun.
//
// The tracked lists push change notifications through
// tracking.Store.Subscribe. waitForChangeCmd turns each one into a
// trackingChangedMsg and is re-armed after every delivery, so marks and the
// watch-later row stay current without polling. Home lists come from the
// poller through state.Store on every tick.
//
// Views:
//
//   - Home: continue watching, airing now, and upcoming
//   - Schedule: one weekday of the current week, switched with [ and ]
//   - Profile: account summary and airing watch-later shows
//   - Logs: the log file, filtered by level
//   - Detail and Account are opened from the others and return with esc
package ui
