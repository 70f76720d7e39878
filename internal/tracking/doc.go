// Package tracking holds the user's two anime lists: the tracked set and the
// watch-later set.
//
// # Overview
//
// A Store keeps both sets in memory and mirrors every change to a kv.Store
// under fixed keys ("tracked_anime_ids" and "watch_later_ids"). Each value
// is a JSON array of id strings in insertion order. Older values that hold
// numbers are accepted and converted to strings on load.
//
// # Lifecycle
//
//	New ──→ Loading ──Load──→ Ready ──Add/Remove──→ Ready
//
// A new store reports Loading until Load has read both keys. Load never
// fails; a missing key, unreadable storage, or malformed JSON all produce an
// empty set and a log line. Views that depend on the lists wait on Ready.
//
// # Persistence
//
// Mutations change memory first and return. The new list is written from a
// background goroutine. Writes for one key are serialized and each carries a
// version, so an older snapshot never overwrites a newer one. A failed write
// is logged and the in-memory state stays as the user left it. Wait blocks
// until outstanding writes finish, which tests and shutdown use.
//
// # Filtering
//
// The "show tracked only" flag is transient and never persisted. Filter and
// FilterFunc apply it to any slice of display items, preserving order and
// returning the input untouched when the flag is off.
//
// # Change notification
//
// Subscribe hands out a buffered channel that receives a signal after any
// change. Signals coalesce, so a slow reader re-reads state once rather than
// draining a backlog.
package tracking
