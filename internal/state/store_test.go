package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/shiki/internal/jikan"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	airing := []jikan.Anime{{MalID: 1}, {MalID: 2}}
	upcoming := []jikan.Anime{{MalID: 3}}

	before := time.Now()
	s.Update(airing, upcoming, nil, nil)

	snap := s.Snapshot()
	if !snap.Loaded() || !snap.Airing.HasData || !snap.Upcoming.HasData {
		t.Fatalf("snapshot = %#v, want both sections loaded", snap)
	}
	if len(snap.Airing.Items) != 2 || snap.Upcoming.Items[0].MalID != 3 {
		t.Fatalf("snapshot items = %#v / %#v", snap.Airing.Items, snap.Upcoming.Items)
	}
	if snap.LastUpdated.Before(before) || snap.Airing.UpdatedAt.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Airing.Items[0].MalID = 999
	airing[1].MalID = 998
	snap2 := s.Snapshot()
	if snap2.Airing.Items[0].MalID != 1 || snap2.Airing.Items[1].MalID != 2 {
		t.Fatalf("Snapshot should clone items; got %#v", snap2.Airing.Items)
	}
}

func TestStore_SectionErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]jikan.Anime{{MalID: 1}}, []jikan.Anime{{MalID: 2}}, nil, nil)

	origErr := errors.New("boom")
	s.Update(nil, []jikan.Anime{{MalID: 5}}, origErr, nil)

	snap := s.Snapshot()
	if len(snap.Airing.Items) != 1 || snap.Airing.Items[0].MalID != 1 {
		t.Fatalf("airing changed on error: %#v", snap.Airing.Items)
	}
	if snap.Airing.Err == nil || snap.Airing.Err.Error() != "boom" {
		t.Fatalf("Airing.Err = %v, want boom", snap.Airing.Err)
	}
	if snap.Upcoming.Err != nil || snap.Upcoming.Items[0].MalID != 5 {
		t.Fatalf("upcoming should update independently: %#v", snap.Upcoming)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatalf("LastError = %v, want to wrap boom", snap.LastError)
	}
	if reflect.ValueOf(snap.Airing.Err).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
	if snap.ConsecutiveFailures != 0 {
		t.Fatalf("a partial failure should not count as offline, got %d", snap.ConsecutiveFailures)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() || snap.Loaded() {
		t.Fatalf("zero store = %#v, want empty online snapshot", snap)
	}

	fail := errors.New("down")
	for i := 1; i <= 3; i++ {
		s.Update(nil, nil, fail, fail)
		snap = s.Snapshot()
		if snap.ConsecutiveFailures != i {
			t.Fatalf("ConsecutiveFailures = %d, want %d", snap.ConsecutiveFailures, i)
		}
		if snap.IsOffline() != (i >= 2) {
			t.Fatalf("IsOffline() = %v with %d failures", snap.IsOffline(), i)
		}
	}

	// One healthy section is enough to reset the counter.
	s.Update(nil, []jikan.Anime{{MalID: 1}}, fail, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("ConsecutiveFailures = %d, want 0 after success", snap.ConsecutiveFailures)
	}
}
