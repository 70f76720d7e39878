package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/logging"
	"github.com/five82/shiki/internal/state"
)

const (
	defaultPollInterval = 10 * time.Minute
	maxBackoff          = 30 * time.Minute
)

// HomeSource supplies the seasonal lists.
type HomeSource interface {
	Home(ctx context.Context) catalog.Home
}

// StartPoller launches a background goroutine that refreshes the store
// immediately and then every interval, backing off while both lists fail.
// The returned channel is closed once the goroutine exits.
func StartPoller(ctx context.Context, store *state.Store, source HomeSource, interval time.Duration, logger *log.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger = logging.Component(logger, "poller")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			failures := refresh(ctx, store, source, logger)
			if ctx.Err() != nil {
				return
			}
			wait := calculateBackoff(failures, interval)
			if failures > 0 {
				logger.Warn("home refresh failed", "failures", failures, "retry_in", wait)
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
	return done
}

// refresh fetches both lists once and returns the consecutive failure count.
// A refresh interrupted by shutdown is not recorded.
func refresh(ctx context.Context, store *state.Store, source HomeSource, logger *log.Logger) int {
	home := source.Home(ctx)
	if ctx.Err() != nil {
		return store.Snapshot().ConsecutiveFailures
	}
	store.Update(home.Airing.Items, home.Upcoming.Items, home.Airing.Err, home.Upcoming.Err)
	if home.Airing.Err != nil {
		logger.Error("airing list poll failed", "err", home.Airing.Err)
	}
	if home.Upcoming.Err != nil {
		logger.Error("upcoming list poll failed", "err", home.Upcoming.Err)
	}
	logger.Debug("home refreshed", "airing", len(home.Airing.Items), "upcoming", len(home.Upcoming.Items))
	return store.Snapshot().ConsecutiveFailures
}

// calculateBackoff doubles base once per consecutive failure, up to
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
