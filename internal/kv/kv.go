// Package kv provides the durable key-value store behind tracked lists and
// the auth session. Values are opaque strings; callers own the encoding.
package kv

import (
	"context"
	"errors"
	"sync"
)

// Store is a string key-value store. Get reports absence with ok=false rather
// than an error. No multi-key atomicity is offered.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Memory is a map-backed Store for tests and ephemeral sessions.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	closed   bool
	failSets error
	failGets error
	sets     int
}

// NewMemory returns an empty in-memory store, optionally seeded.
func NewMemory(seed map[string]string) *Memory {
	data := make(map[string]string, len(seed))
	for k, v := range seed {
		data[k] = v
	}
	return &Memory{data: data}
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	if m.failGets != nil {
		return "", false, m.failGets
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.failSets != nil {
		return m.failSets
	}
	m.data[key] = value
	m.sets++
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// FailSets makes subsequent Set calls return err; nil restores normal writes.
func (m *Memory) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSets = err
}

// FailGets makes subsequent Get calls return err; nil restores normal reads.
func (m *Memory) FailGets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGets = err
}

// Raw returns the stored value without going through Get's failure hooks.
func (m *Memory) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// SetCount returns the number of successful writes.
func (m *Memory) SetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
