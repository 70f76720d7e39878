package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoader_CommitsCurrentBatch(t *testing.T) {
	l := NewLoader(New(newFakeAPI()))
	b := l.Begin([]string{"1", "2"})
	if cur := l.Current(); !cur.Loading || cur.Gen != b.Gen {
		t.Fatalf("Current() = %+v, want loading gen %d", cur, b.Gen)
	}

	items, ok := b.Run(context.Background())
	if !ok {
		t.Fatalf("current batch was not committed")
	}
	cur := l.Current()
	if cur.Loading {
		t.Fatalf("still loading after commit")
	}
	if diff := cmp.Diff(ids(items), ids(cur.Items)); diff != "" {
		t.Fatalf("committed items mismatch (-run +current):\n%s", diff)
	}
}

func TestLoader_StaleBatchIsDropped(t *testing.T) {
	api := newFakeAPI()
	api.delay["slow"] = time.Hour
	api.malID["slow"] = 100
	l := NewLoader(New(api))

	old := l.Begin([]string{"slow"})
	done := make(chan bool)
	go func() {
		_, ok := old.Run(context.Background())
		done <- ok
	}()

	fresh := l.Begin([]string{"1"})
	if !l.Stale(old.Gen) || l.Stale(fresh.Gen) {
		t.Fatalf("Stale(old)=%v Stale(fresh)=%v", l.Stale(old.Gen), l.Stale(fresh.Gen))
	}
	if _, ok := fresh.Run(context.Background()); !ok {
		t.Fatalf("fresh batch not committed")
	}

	select {
	case ok := <-done:
		if ok {
			t.Fatalf("superseded batch was committed")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded batch was not cancelled")
	}
	if diff := cmp.Diff([]string{"1"}, ids(l.Current().Items)); diff != "" {
		t.Fatalf("current items mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_ParentCancelAbandonsBatch(t *testing.T) {
	api := newFakeAPI()
	api.delay["1"] = time.Hour
	l := NewLoader(New(api))

	first := l.Begin([]string{"2"})
	first.Run(context.Background())

	b := l.Begin([]string{"1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := b.Run(ctx); ok {
		t.Fatalf("cancelled batch was committed")
	}
	cur := l.Current()
	if cur.Loading {
		t.Fatalf("loading flag left set after abandoned batch")
	}
	if diff := cmp.Diff([]string{"2"}, ids(cur.Items)); diff != "" {
		t.Fatalf("previous items should survive (-want +got):\n%s", diff)
	}
}

func TestLoader_CancelStopsRunningBatch(t *testing.T) {
	api := newFakeAPI()
	api.delay["1"] = time.Hour
	l := NewLoader(New(api))
	b := l.Begin([]string{"1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(context.Background())
	}()
	l.Cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Cancel did not stop the batch")
	}
	if l.Current().Loading {
		t.Fatalf("loading after Cancel")
	}
}
