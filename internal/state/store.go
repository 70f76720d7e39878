package state

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/shiki/internal/jikan"
)

// Section is one independently refreshed catalog list.
type Section struct {
	Items     []jikan.Anime
	HasData   bool
	Err       error
	UpdatedAt time.Time
}

// Snapshot represents the latest home catalog available to the UI.
type Snapshot struct {
	Airing              Section
	Upcoming            Section
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive polls where every section failed
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Loaded reports whether any section has received data.
func (s Snapshot) Loaded() bool {
	return s.Airing.HasData || s.Upcoming.HasData
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records one poll. Each section is handled on its own: a section
// whose err is non-nil keeps its previous items and records the error.
func (s *Store) Update(airing, upcoming []jikan.Anime, airingErr, upcomingErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	applySection(&s.snapshot.Airing, airing, airingErr, now)
	applySection(&s.snapshot.Upcoming, upcoming, upcomingErr, now)

	s.snapshot.LastUpdated = now
	s.snapshot.LastError = errors.Join(airingErr, upcomingErr)
	if airingErr != nil && upcomingErr != nil {
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.ConsecutiveFailures = 0
}

func applySection(sec *Section, items []jikan.Anime, err error, now time.Time) {
	if err != nil {
		sec.Err = err
		return
	}
	sec.Items = cloneItems(items)
	sec.HasData = true
	sec.Err = nil
	sec.UpdatedAt = now
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Airing = cloneSection(s.snapshot.Airing)
	snap.Upcoming = cloneSection(s.snapshot.Upcoming)
	snap.LastError = cloneErr(s.snapshot.LastError)
	return snap
}

func cloneSection(sec Section) Section {
	sec.Items = cloneItems(sec.Items)
	sec.Err = cloneErr(sec.Err)
	return sec
}

func cloneErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w", err)
}

func cloneItems(items []jikan.Anime) []jikan.Anime {
	if len(items) == 0 {
		return nil
	}
	return slices.Clone(items)
}
