package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/logging"
)

// Getter fetches a single record by id. *jikan.Client satisfies it.
type Getter interface {
	Anime(ctx context.Context, id string) (jikan.Anime, error)
}

// GetterFunc adapts a function to Getter.
type GetterFunc func(ctx context.Context, id string) (jikan.Anime, error)

// Anime calls f.
func (f GetterFunc) Anime(ctx context.Context, id string) (jikan.Anime, error) {
	return f(ctx, id)
}

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 400 * time.Millisecond
)

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithAttempts sets the number of tries per id. Values below 1 are ignored.
func WithAttempts(n int) Option {
	return func(f *Fetcher) {
		if n >= 1 {
			f.attempts = n
		}
	}
}

// WithBaseDelay sets the linear backoff unit. The wait after failed attempt n
// is n times this value.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.baseDelay = d
		}
	}
}

// WithLogger sets the logger used for dropped ids.
func WithLogger(logger *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logging.Component(logger, "fetch")
	}
}

// Fetcher resolves lists of ids into records concurrently. A failing id never
// fails the batch; it is retried, then dropped with a log line.
type Fetcher struct {
	get       Getter
	attempts  int
	baseDelay time.Duration
	logger    *log.Logger
	inflight  singleflight.Group
}

// New returns a Fetcher using get for single-record lookups.
func New(get Getter, opts ...Option) *Fetcher {
	f := &Fetcher{
		get:       get,
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchMany fetches every id concurrently and returns the records that
// resolved, in input order, without duplicate ids. Duplicate input ids issue a
// single request. The only error is ctx's, returned together with whatever
// resolved before cancellation.
func (f *Fetcher) FetchMany(ctx context.Context, ids []string) ([]jikan.Anime, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return []jikan.Anime{}, nil
	}

	batch := uuid.NewString()
	results := make([]*jikan.Anime, len(unique))
	var g errgroup.Group
	for i, id := range unique {
		g.Go(func() error {
			a, err := f.fetchOne(ctx, id)
			if err != nil {
				if ctx.Err() == nil {
					f.logger.Warn("dropped id after retries", "batch", batch, "id", id, "attempts", f.attempts, "err", err)
				}
				return nil
			}
			results[i] = &a
			return nil
		})
	}
	_ = g.Wait()

	out := make([]jikan.Anime, 0, len(results))
	seen := make(map[int]struct{}, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if _, dup := seen[r.MalID]; dup {
			continue
		}
		seen[r.MalID] = struct{}{}
		out = append(out, *r)
	}
	if dropped := len(unique) - len(out); dropped > 0 {
		f.logger.Debug("batch finished", "batch", batch, "requested", len(unique), "dropped", dropped)
	}
	return out, ctx.Err()
}

// fetchOne shares an in-flight lookup with any concurrent caller asking for
// the same id. A caller whose ctx is still live does not inherit another
// caller's cancellation.
func (f *Fetcher) fetchOne(ctx context.Context, id string) (jikan.Anime, error) {
	for range 2 {
		v, err, shared := f.inflight.Do(id, func() (any, error) {
			return f.withRetry(ctx, id)
		})
		if err != nil && shared && ctx.Err() == nil && isContextErr(err) {
			continue
		}
		if err != nil {
			return jikan.Anime{}, err
		}
		return v.(jikan.Anime), nil
	}
	return f.withRetry(ctx, id)
}

func (f *Fetcher) withRetry(ctx context.Context, id string) (jikan.Anime, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		a, err := f.get.Anime(ctx, id)
		if err == nil {
			return a, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return jikan.Anime{}, ctx.Err()
		}
		if attempt == f.attempts {
			break
		}
		if err := sleep(ctx, time.Duration(attempt)*f.baseDelay); err != nil {
			return jikan.Anime{}, err
		}
	}
	return jikan.Anime{}, fmt.Errorf("fetch %s: %d attempts: %w", id, f.attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
