package fetch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/five82/shiki/internal/jikan"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAPI answers by id. Ids listed in fail always error; failFirst[id]
// errors that many times before succeeding.
type fakeAPI struct {
	mu        sync.Mutex
	calls     map[string]int
	fail      map[string]bool
	failFirst map[string]int
	delay     map[string]time.Duration
	malID     map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:     map[string]int{},
		fail:      map[string]bool{},
		failFirst: map[string]int{},
		delay:     map[string]time.Duration{},
		malID:     map[string]int{},
	}
}

func (f *fakeAPI) Anime(ctx context.Context, id string) (jikan.Anime, error) {
	f.mu.Lock()
	f.calls[id]++
	n := f.calls[id]
	fail := f.fail[id] || n <= f.failFirst[id]
	delay := f.delay[id]
	mal, ok := f.malID[id]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return jikan.Anime{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if fail {
		return jikan.Anime{}, errors.New("boom")
	}
	if !ok {
		mal, _ = strconv.Atoi(id)
	}
	return jikan.Anime{MalID: mal, Title: "title " + id}, nil
}

func (f *fakeAPI) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func ids(items []jikan.Anime) []string {
	out := make([]string, len(items))
	for i, a := range items {
		out[i] = a.ID()
	}
	return out
}

func TestFetchMany_EmptyInput(t *testing.T) {
	api := newFakeAPI()
	got, err := New(api).FetchMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchMany returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("FetchMany(nil) = %#v, want empty non-nil slice", got)
	}
	if len(api.calls) != 0 {
		t.Fatalf("empty input made %d calls", len(api.calls))
	}
}

func TestFetchMany_FaultIsolation(t *testing.T) {
	api := newFakeAPI()
	api.fail["2"] = true
	f := New(api, WithBaseDelay(time.Millisecond))

	got, err := f.FetchMany(context.Background(), []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("FetchMany returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "3"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if n := api.callCount("2"); n != DefaultAttempts {
		t.Fatalf("failing id called %d times, want %d", n, DefaultAttempts)
	}
	if n := api.callCount("1"); n != 1 {
		t.Fatalf("healthy id called %d times, want 1", n)
	}
}

func TestFetchMany_DedupesInput(t *testing.T) {
	api := newFakeAPI()
	got, err := New(api).FetchMany(context.Background(), []string{"5", "5", "9"})
	if err != nil {
		t.Fatalf("FetchMany returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"5", "9"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if n := api.callCount("5"); n != 1 {
		t.Fatalf("duplicate id fetched %d times, want 1", n)
	}
}

func TestFetchMany_DedupesByReturnedID(t *testing.T) {
	api := newFakeAPI()
	api.malID["01"] = 1
	got, _ := New(api).FetchMany(context.Background(), []string{"01", "1", "2"})
	if diff := cmp.Diff([]string{"1", "2"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got[0].Title != "title 01" {
		t.Fatalf("first occurrence should win, got %q", got[0].Title)
	}
}

func TestFetchMany_PreservesInputOrder(t *testing.T) {
	api := newFakeAPI()
	api.delay["1"] = 30 * time.Millisecond
	api.delay["2"] = 15 * time.Millisecond
	got, _ := New(api).FetchMany(context.Background(), []string{"1", "2", "3"})
	if diff := cmp.Diff([]string{"1", "2", "3"}, ids(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchMany_LinearBackoff(t *testing.T) {
	api := newFakeAPI()
	api.failFirst["7"] = 2
	base := 20 * time.Millisecond
	f := New(api, WithBaseDelay(base))

	start := time.Now()
	got, _ := f.FetchMany(context.Background(), []string{"7"})
	elapsed := time.Since(start)

	if len(got) != 1 {
		t.Fatalf("expected recovery on third attempt, got %d records", len(got))
	}
	if elapsed < 3*base {
		t.Fatalf("elapsed %v, want at least %v (1x + 2x base delay)", elapsed, 3*base)
	}
	if n := api.callCount("7"); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestFetchMany_NoDataIsAFailure(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	get := GetterFunc(func(ctx context.Context, id string) (jikan.Anime, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return jikan.Anime{}, jikan.ErrNoData
	})
	got, err := New(get, WithBaseDelay(0), WithAttempts(2)).FetchMany(context.Background(), []string{"1"})
	if err != nil || len(got) != 0 {
		t.Fatalf("FetchMany = %v, %v; want empty, nil", got, err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestFetchMany_CancelledDuringBackoff(t *testing.T) {
	api := newFakeAPI()
	api.fail["1"] = true
	api.malID["2"] = 2
	f := New(api, WithBaseDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	got, err := f.FetchMany(ctx, []string{"1", "2"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if diff := cmp.Diff([]string{"2"}, ids(got)); diff != "" {
		t.Fatalf("partial results mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchMany_SharesInflightRequests(t *testing.T) {
	api := newFakeAPI()
	api.delay["3"] = 150 * time.Millisecond
	f := New(api)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := f.FetchMany(context.Background(), []string{"3"})
			if len(got) != 1 {
				t.Errorf("got %d records, want 1", len(got))
			}
		}()
	}
	wg.Wait()
	if n := api.callCount("3"); n != 1 {
		t.Fatalf("concurrent batches made %d calls, want 1", n)
	}
}
