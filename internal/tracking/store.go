package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shiki/internal/kv"
	"github.com/five82/shiki/internal/logging"
)

// SetName selects one of the two identifier sets.
type SetName int

const (
	Tracked SetName = iota
	WatchLater
)

var setNames = [...]SetName{Tracked, WatchLater}

// String returns the human label for the set.
func (n SetName) String() string {
	switch n {
	case Tracked:
		return "tracked"
	case WatchLater:
		return "watch later"
	default:
		return fmt.Sprintf("set(%d)", int(n))
	}
}

// Key returns the durable storage key for the set.
func (n SetName) Key() string {
	switch n {
	case WatchLater:
		return "watch_later_ids"
	default:
		return "tracked_anime_ids"
	}
}

func (n SetName) valid() bool {
	return n == Tracked || n == WatchLater
}

// Identifiable is any display item that carries a remote identifier.
type Identifiable interface {
	ID() string
}

// Snapshot is a copy of the store's observable state.
type Snapshot struct {
	Tracked         []string
	WatchLater      []string
	ShowTrackedOnly bool
	Loading         bool
}

const defaultWriteTimeout = 5 * time.Second

// Store owns the tracked and watch-later identifier sets. Mutations apply to
// memory synchronously and persist in the background; persistence failures
// are logged and never undo the mutation.
type Store struct {
	kv     kv.Store
	logger *log.Logger

	mu              sync.RWMutex
	ids             [2][]string
	index           [2]map[string]struct{}
	version         [2]uint64
	showTrackedOnly bool
	loading         bool

	loadOnce sync.Once
	ready    chan struct{}

	// persistMu serializes writes per key so that a slow write of an old
	// snapshot cannot land after a newer one.
	persistMu    [2]sync.Mutex
	attempted    [2]uint64
	pending      sync.WaitGroup
	writeTimeout time.Duration

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// New returns an empty, loading store backed by store. A nil store keeps
// everything in memory.
func New(store kv.Store, logger *log.Logger) *Store {
	if store == nil {
		store = kv.NewMemory(nil)
	}
	s := &Store{
		kv:           store,
		logger:       logging.Component(logger, "tracking"),
		loading:      true,
		ready:        make(chan struct{}),
		writeTimeout: defaultWriteTimeout,
		subs:         make(map[int]chan struct{}),
	}
	for i := range s.index {
		s.index[i] = make(map[string]struct{})
	}
	return s
}

// Load reads both persisted sets concurrently. It runs at most once; later
// calls return immediately. Missing or malformed values leave the set empty.
// Load never fails: every problem is logged and startup continues.
func (s *Store) Load(ctx context.Context) {
	s.loadOnce.Do(func() {
		var loaded [2][]string
		var g errgroup.Group
		for _, name := range setNames {
			g.Go(func() error {
				loaded[name] = s.read(ctx, name)
				return nil
			})
		}
		_ = g.Wait()

		s.mu.Lock()
		var dirty []SetName
		for _, name := range setNames {
			// Ids added before the load finished are kept after the stored ones.
			early := s.ids[name]
			s.ids[name] = nil
			s.index[name] = make(map[string]struct{})
			for _, id := range loaded[name] {
				s.insertLocked(name, id)
			}
			added := false
			for _, id := range early {
				if s.insertLocked(name, id) {
					added = true
				}
			}
			if added {
				s.version[name]++
				dirty = append(dirty, name)
			}
		}
		s.loading = false
		snapshots := make(map[SetName][]string, len(dirty))
		versions := make(map[SetName]uint64, len(dirty))
		for _, name := range dirty {
			snapshots[name] = slices.Clone(s.ids[name])
			versions[name] = s.version[name]
		}
		s.mu.Unlock()

		for _, name := range dirty {
			s.persist(name, snapshots[name], versions[name])
		}
		close(s.ready)
		s.logger.Debug("lists loaded", "tracked", s.Len(Tracked), "watch_later", s.Len(WatchLater))
		s.notify()
	})
}

func (s *Store) read(ctx context.Context, name SetName) []string {
	raw, ok, err := s.kv.Get(ctx, name.Key())
	if err != nil {
		s.logger.Error("failed to load list from storage", "set", name, "err", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	ids, err := decodeIDs(raw)
	if err != nil {
		s.logger.Warn("failed to parse stored list", "set", name, "err", err)
		return nil
	}
	return ids
}

// decodeIDs parses a JSON array, stringifying numeric elements. Anything that
// is not exactly one array of strings and numbers is rejected as a whole.
func decodeIDs(raw string) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after list")
	}
	ids := make([]string, 0, len(values))
	for i, v := range values {
		switch id := v.(type) {
		case string:
			ids = append(ids, id)
		case json.Number:
			ids = append(ids, id.String())
		default:
			return nil, fmt.Errorf("element %d has type %T", i, v)
		}
	}
	return ids, nil
}

// Loading reports whether Load has not finished yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once Load has settled both sets.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until Load finishes or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Add inserts id into the named set. Adding an existing id changes nothing.
func (s *Store) Add(name SetName, id string) {
	if !name.valid() {
		return
	}
	s.mu.Lock()
	if !s.insertLocked(name, id) {
		s.mu.Unlock()
		return
	}
	snapshot, version := s.bumpLocked(name)
	loading := s.loading
	s.mu.Unlock()

	// Load persists early mutations once the stored value has been merged.
	if !loading {
		s.persist(name, snapshot, version)
	}
	s.notify()
}

// Remove deletes id from the named set. Removing a missing id changes nothing.
func (s *Store) Remove(name SetName, id string) {
	if !name.valid() {
		return
	}
	s.mu.Lock()
	if _, ok := s.index[name][id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.index[name], id)
	s.ids[name] = slices.DeleteFunc(slices.Clone(s.ids[name]), func(v string) bool { return v == id })
	snapshot, version := s.bumpLocked(name)
	loading := s.loading
	s.mu.Unlock()

	if !loading {
		s.persist(name, snapshot, version)
	}
	s.notify()
}

// Toggle adds id when absent and removes it when present, returning the new
// membership.
func (s *Store) Toggle(name SetName, id string) bool {
	if s.Contains(name, id) {
		s.Remove(name, id)
		return false
	}
	s.Add(name, id)
	return true
}

// Contains reports whether id is in the named set.
func (s *Store) Contains(name SetName, id string) bool {
	if !name.valid() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[name][id]
	return ok
}

// IDs returns a copy of the named set in insertion order.
func (s *Store) IDs(name SetName) []string {
	if !name.valid() {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ids[name])
}

// Len returns the size of the named set.
func (s *Store) Len(name SetName) int {
	if !name.valid() {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids[name])
}

// ShowTrackedOnly reports the transient list filter.
func (s *Store) ShowTrackedOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.showTrackedOnly
}

// SetShowTrackedOnly changes the transient list filter. Nothing is persisted.
func (s *Store) SetShowTrackedOnly(on bool) {
	s.mu.Lock()
	changed := s.showTrackedOnly != on
	s.showTrackedOnly = on
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Tracked:         slices.Clone(s.ids[Tracked]),
		WatchLater:      slices.Clone(s.ids[WatchLater]),
		ShowTrackedOnly: s.showTrackedOnly,
		Loading:         s.loading,
	}
}

// Filter returns items unchanged when the tracked-only filter is off, and
// otherwise the subsequence whose id is tracked, in input order.
func Filter[T Identifiable](s *Store, items []T) []T {
	return FilterFunc(s, items, func(item T) string { return item.ID() })
}

// FilterFunc is Filter for item types that expose their id through a
// function instead of a method.
func FilterFunc[T any](s *Store, items []T, id func(T) string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.showTrackedOnly {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := s.index[Tracked][id(item)]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Subscribe returns a channel that receives a value after state changes.
// Notifications coalesce: a slow reader sees one pending signal, not a
// backlog. Call the returned function to stop receiving.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Wait blocks until all scheduled writes have finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) insertLocked(name SetName, id string) bool {
	if _, ok := s.index[name][id]; ok {
		return false
	}
	s.index[name][id] = struct{}{}
	s.ids[name] = append(slices.Clip(s.ids[name]), id)
	return true
}

func (s *Store) bumpLocked(name SetName) ([]string, uint64) {
	s.version[name]++
	return slices.Clone(s.ids[name]), s.version[name]
}

// persist writes snapshot in the background. The caller never waits for it.
func (s *Store) persist(name SetName, snapshot []string, version uint64) {
	if snapshot == nil {
		snapshot = []string{}
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		s.persistMu[name].Lock()
		defer s.persistMu[name].Unlock()
		if version <= s.attempted[name] {
			return
		}
		s.attempted[name] = version

		payload, err := json.Marshal(snapshot)
		if err != nil {
			s.logger.Error("failed to encode list", "set", name, "err", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()
		if err := s.kv.Set(ctx, name.Key(), string(payload)); err != nil {
			s.logger.Error("failed to save list", "set", name, "err", err)
		}
	}()
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
