// Package fetch turns lists of anime ids into records.
//
// Fetcher.FetchMany issues one lookup per distinct id, all at once, and
// retries each failed lookup with a linear backoff (the wait after attempt n
// is n times the base delay). Ids that still fail are dropped and logged, so
// a caller always gets the records that resolved, in the order it asked for
// them.
//
// Loader layers a generation counter over FetchMany for lists that change
// while a fetch is running, such as the watch-later set. Starting a batch
// cancels the previous one and only the newest batch may commit.
package fetch
