// Package logtail reads the tail of shiki's own log file for the Logs view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays at O(maxLines) however large the log grows. Lines come
// back oldest first. A missing file yields nil, nil since the log is only
// created on first write.
//
// # Parsing
//
// The app logger writes lines of the form
//
//	2026-10-16T09:12:44+09:00 WARN fetch: dropped id after retries id=42
//
// Parse splits out the timestamp, level, and component prefix. Lines that do
// not match, such as a panic trace, keep their text in Message with an
// unknown level. AtLeast filters by level and keeps unknown lines.
package logtail
