package catalog

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/five82/shiki/internal/fetch"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/logging"
	"github.com/five82/shiki/internal/tracking"
)

// API is the subset of the remote client the screens need.
type API interface {
	AnimeFull(ctx context.Context, id string) (jikan.Anime, error)
	Characters(ctx context.Context, id string) ([]jikan.Character, error)
	Recommendations(ctx context.Context, id string) ([]jikan.Recommendation, error)
	Schedule(ctx context.Context, day string, sfw bool) ([]jikan.Anime, error)
	SeasonNow(ctx context.Context, sfw bool) ([]jikan.Anime, error)
	SeasonUpcoming(ctx context.Context) ([]jikan.Anime, error)
}

// Service assembles what each screen shows from the API, the Fetcher, and
// the tracked lists.
type Service struct {
	api     API
	fetcher *fetch.Fetcher
	store   *tracking.Store
	sfw     bool
	logger  *log.Logger
}

// Options configures a Service.
type Options struct {
	SFW    bool
	Logger *log.Logger
}

// New returns a Service.
func New(api API, fetcher *fetch.Fetcher, store *tracking.Store, opts Options) *Service {
	return &Service{
		api:     api,
		fetcher: fetcher,
		store:   store,
		sfw:     opts.SFW,
		logger:  logging.Component(opts.Logger, "catalog"),
	}
}

// Section is one home list. Err is set when the list could not be fetched;
// the primary lists are not retried.
type Section struct {
	Items []jikan.Anime
	Err   error
}

// Home holds the two seasonal lists.
type Home struct {
	Airing   Section
	Upcoming Section
}

// Home fetches the airing and upcoming seasons in parallel. A failure in one
// list leaves the other intact.
func (s *Service) Home(ctx context.Context) Home {
	var home Home
	var g errgroup.Group
	g.Go(func() error {
		items, err := s.api.SeasonNow(ctx, s.sfw)
		home.Airing = section(items, err, "airing")
		return nil
	})
	g.Go(func() error {
		items, err := s.api.SeasonUpcoming(ctx)
		home.Upcoming = section(items, err, "upcoming")
		return nil
	})
	_ = g.Wait()
	if home.Airing.Err != nil {
		s.logger.Warn("airing season fetch failed", "err", home.Airing.Err)
	}
	if home.Upcoming.Err != nil {
		s.logger.Warn("upcoming season fetch failed", "err", home.Upcoming.Err)
	}
	return home
}

func section(items []jikan.Anime, err error, name string) Section {
	if err != nil {
		return Section{Err: fmt.Errorf("fetch %s: %w", name, err)}
	}
	return Section{Items: Dedupe(items)}
}

// ContinueResult is the outcome of one watch-later batch.
type ContinueResult struct {
	Gen       uint64
	Items     []jikan.Anime
	Committed bool
}

// ContinueWatching waits until the tracked lists have loaded, then fetches the
// watch-later set through loader. A result that was superseded by a newer
// batch comes back with Committed false.
func (s *Service) ContinueWatching(ctx context.Context, loader *fetch.Loader) (ContinueResult, error) {
	if err := s.store.WaitReady(ctx); err != nil {
		return ContinueResult{}, err
	}
	batch := loader.Begin(s.store.IDs(tracking.WatchLater))
	items, ok := batch.Run(ctx)
	return ContinueResult{Gen: batch.Gen, Items: items, Committed: ok}, nil
}

// Detail is everything the detail screen shows for one show.
type Detail struct {
	Anime           Entry
	Characters      []jikan.Character
	Recommendations []jikan.Recommendation
}

// Detail fetches the full record, cast, and recommendations in parallel. Only
// the full record is required; the other two degrade to empty lists.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	var (
		full  jikan.Anime
		chars []jikan.Character
		recs  []jikan.Recommendation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.api.AnimeFull(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch anime %s: %w", id, err)
		}
		full = a
		return nil
	})
	g.Go(func() error {
		c, err := s.api.Characters(gctx, id)
		if err != nil {
			s.logger.Warn("characters unavailable", "id", id, "err", err)
			return nil
		}
		chars = c
		return nil
	})
	g.Go(func() error {
		r, err := s.api.Recommendations(gctx, id)
		if err != nil {
			s.logger.Warn("recommendations unavailable", "id", id, "err", err)
			return nil
		}
		recs = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	if chars == nil {
		chars = []jikan.Character{}
	}
	if recs == nil {
		recs = []jikan.Recommendation{}
	}
	return Detail{Anime: s.entry(full), Characters: chars, Recommendations: recs}, nil
}
