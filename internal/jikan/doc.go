// Package jikan is a small client for the public Jikan v4 REST API.
//
// Every response is an envelope with a "data" field and, for lists, a
// "pagination" block. A response without data yields ErrNoData and a
// non-2xx status yields *StatusError. Requests are paced by a token bucket
// limiter and pass through a circuit breaker that opens after repeated
// server-side failures.
package jikan
