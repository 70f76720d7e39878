package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/logging"
	"github.com/five82/shiki/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Minute

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Minute},
		{"negative failures", -1, 2 * time.Minute},
		{"one failure", 1, 4 * time.Minute},
		{"two failures", 2, 8 * time.Minute},
		{"three failures", 3, 16 * time.Minute},
		{"four failures capped", 4, 30 * time.Minute}, // Would be 32m, capped to 30m
		{"many failures capped", 10, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 10 * time.Minute
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeSource struct {
	calls atomic.Int32
	home  func(n int32) catalog.Home
}

func (f *fakeSource) Home(context.Context) catalog.Home {
	return f.home(f.calls.Add(1))
}

func TestRefreshKeepsGoodSection(t *testing.T) {
	store := &state.Store{}
	airing := []jikan.Anime{{MalID: 1, Title: "One"}}
	src := &fakeSource{home: func(n int32) catalog.Home {
		if n == 1 {
			return catalog.Home{Airing: catalog.Section{Items: airing}}
		}
		return catalog.Home{
			Airing:   catalog.Section{Err: errors.New("timeout")},
			Upcoming: catalog.Section{Items: []jikan.Anime{{MalID: 2}}},
		}
	}}

	if got := refresh(context.Background(), store, src, logging.Discard()); got != 0 {
		t.Fatalf("failures after success = %d", got)
	}
	if got := refresh(context.Background(), store, src, logging.Discard()); got != 0 {
		t.Fatalf("a single failing section must not count as offline, got %d", got)
	}
	snap := store.Snapshot()
	if len(snap.Airing.Items) != 1 || snap.Airing.Err == nil {
		t.Fatalf("airing = %+v, want previous items plus the error", snap.Airing)
	}
	if len(snap.Upcoming.Items) != 1 {
		t.Fatalf("upcoming = %+v", snap.Upcoming)
	}
}

func TestRefreshCountsTotalFailures(t *testing.T) {
	store := &state.Store{}
	boom := errors.New("offline")
	src := &fakeSource{home: func(int32) catalog.Home {
		return catalog.Home{Airing: catalog.Section{Err: boom}, Upcoming: catalog.Section{Err: boom}}
	}}
	refresh(context.Background(), store, src, logging.Discard())
	if got := refresh(context.Background(), store, src, logging.Discard()); got != 2 {
		t.Fatalf("failures = %d, want 2", got)
	}
	if !store.Snapshot().IsOffline() {
		t.Fatal("two total failures should report offline")
	}
}

func TestStartPollerStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &state.Store{}
	polled := make(chan struct{}, 1)
	src := &fakeSource{home: func(int32) catalog.Home {
		select {
		case polled <- struct{}{}:
		default:
		}
		return catalog.Home{}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := StartPoller(ctx, store, src, time.Hour, logging.Discard())
	select {
	case <-polled:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not refresh immediately")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	if src.calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", src.calls.Load())
	}
}
