package fetch

import (
	"context"
	"slices"
	"sync"

	"github.com/five82/shiki/internal/jikan"
)

// Result is the loader's committed state.
type Result struct {
	Gen     uint64
	Items   []jikan.Anime
	Loading bool
}

// Loader runs FetchMany batches for a list that can change while a batch is
// in flight. Each Begin supersedes the previous batch: the old batch's
// context is cancelled and its results are never committed.
type Loader struct {
	fetcher *Fetcher

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	items   []jikan.Anime
	loading bool
}

// NewLoader returns a Loader that fetches through f.
func NewLoader(f *Fetcher) *Loader {
	return &Loader{fetcher: f, items: []jikan.Anime{}}
}

// Batch is one generation of work started by Begin.
type Batch struct {
	Gen    uint64
	ids    []string
	loader *Loader
	ctx    context.Context
	cancel context.CancelFunc
}

// Begin starts a new generation for ids and cancels any batch still running.
func (l *Loader) Begin(ids []string) *Batch {
	ctx, cancel := context.WithCancel(context.Background())

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	l.loading = true
	gen := l.gen
	l.mu.Unlock()

	return &Batch{
		Gen:    gen,
		ids:    slices.Clone(ids),
		loader: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run fetches the batch and commits the result if no newer batch has begun.
// The returned bool reports whether the result was committed. Cancelling ctx
// abandons the batch.
func (b *Batch) Run(ctx context.Context) ([]jikan.Anime, bool) {
	stop := context.AfterFunc(ctx, b.cancel)
	defer stop()
	defer b.cancel()

	items, err := b.loader.fetcher.FetchMany(b.ctx, b.ids)
	if err != nil {
		b.loader.settle(b.Gen)
		return nil, false
	}
	return items, b.loader.commit(b.Gen, items)
}

func (l *Loader) commit(gen uint64, items []jikan.Anime) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	l.items = items
	l.loading = false
	l.cancel = nil
	return true
}

// settle clears the loading flag for an abandoned batch that is still the
// newest one, keeping the previously committed items.
func (l *Loader) settle(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen == l.gen {
		l.loading = false
		l.cancel = nil
	}
}

// Current returns the committed items and the newest generation.
func (l *Loader) Current() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Result{Gen: l.gen, Items: slices.Clone(l.items), Loading: l.loading}
}

// Stale reports whether gen has been superseded by a later Begin.
func (l *Loader) Stale(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gen != l.gen
}

// Cancel stops the running batch, if any.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.loading = false
}
