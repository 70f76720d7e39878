package catalog

import (
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/tracking"
)

// Entry is a record decorated with its list membership.
type Entry struct {
	jikan.Anime
	Tracked    bool
	WatchLater bool
}

// Decorate pairs each record with its current membership in both lists.
func (s *Service) Decorate(items []jikan.Anime) []Entry {
	return Decorate(s.store, items)
}

// Decorate pairs each record with its current membership in store's lists.
func Decorate(store *tracking.Store, items []jikan.Anime) []Entry {
	out := make([]Entry, len(items))
	for i, a := range items {
		out[i] = decorate(store, a)
	}
	return out
}

func (s *Service) entry(a jikan.Anime) Entry {
	return decorate(s.store, a)
}

func decorate(store *tracking.Store, a jikan.Anime) Entry {
	id := a.ID()
	return Entry{
		Anime:      a,
		Tracked:    store.Contains(tracking.Tracked, id),
		WatchLater: store.Contains(tracking.WatchLater, id),
	}
}

// Dedupe drops records whose mal_id was already seen, keeping the first.
func Dedupe(items []jikan.Anime) []jikan.Anime {
	seen := make(map[int]struct{}, len(items))
	out := make([]jikan.Anime, 0, len(items))
	for _, a := range items {
		if _, ok := seen[a.MalID]; ok {
			continue
		}
		seen[a.MalID] = struct{}{}
		out = append(out, a)
	}
	return out
}
