package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/shiki/internal/auth"
	"github.com/five82/shiki/internal/catalog"
	"github.com/five82/shiki/internal/config"
	"github.com/five82/shiki/internal/fetch"
	"github.com/five82/shiki/internal/jikan"
	"github.com/five82/shiki/internal/kv"
	"github.com/five82/shiki/internal/logging"
	"github.com/five82/shiki/internal/prefs"
	"github.com/five82/shiki/internal/state"
	"github.com/five82/shiki/internal/tracking"
	"github.com/five82/shiki/internal/ui"
)

// Options configure the shiki application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/shiki/prefs.toml
	Ephemeral  bool   // keep lists and session in memory only
	Verbose    bool   // log at debug level regardless of config
	Version    string
}

// Env is the set of wired services shared by the TUI and the CLI commands.
type Env struct {
	Config   config.Config
	Logger   *log.Logger
	Tracking *tracking.Store
	API      *jikan.Client
	Fetcher  *fetch.Fetcher
	Catalog  *catalog.Service
	Auth     *auth.Client

	store     kv.Store
	logCloser io.Closer
	closeOnce sync.Once
}

// Open loads configuration and builds every service. The tracked lists are
// not loaded yet; callers choose whether to wait for them.
func Open(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	logger, logCloser, err := logging.Open(cfg.LogPath, level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	var store kv.Store
	if opts.Ephemeral {
		store = kv.NewMemory(nil)
	} else {
		db, err := kv.OpenSQLite(cfg.DBPath)
		if err != nil {
			_ = logCloser.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		store = db
	}

	userAgent := "shiki"
	if opts.Version != "" {
		userAgent += "/" + opts.Version
	}
	api, err := jikan.NewClient(jikan.Options{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.RequestTimeout,
		RatePerSecond: cfg.RatePerSecond,
		UserAgent:     userAgent,
		Logger:        logger,
	})
	if err != nil {
		_ = store.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	authClient, err := auth.NewClient(auth.Options{
		BaseURL: cfg.AuthBaseURL,
		APIKey:  cfg.AuthAPIKey,
		Store:   store,
		Logger:  logger,
	})
	if err != nil {
		_ = store.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("init auth client: %w", err)
	}
	if err := authClient.Restore(ctx); err != nil {
		logger.Warn("session not restored", "err", err)
	}

	tracked := tracking.New(store, logger)
	fetcher := fetch.New(api,
		fetch.WithAttempts(cfg.RetryAttempts),
		fetch.WithBaseDelay(cfg.RetryBaseDelay),
		fetch.WithLogger(logger),
	)
	svc := catalog.New(api, fetcher, tracked, catalog.Options{SFW: cfg.SFW, Logger: logger})

	logger.Info("shiki starting",
		"version", opts.Version,
		"api", cfg.APIBaseURL,
		"ephemeral", opts.Ephemeral,
		"auth", cfg.AuthEnabled())

	return &Env{
		Config:    cfg,
		Logger:    logger,
		Tracking:  tracked,
		API:       api,
		Fetcher:   fetcher,
		Catalog:   svc,
		Auth:      authClient,
		store:     store,
		logCloser: logCloser,
	}, nil
}

// closeTimeout bounds how long Close waits for a list load still in flight.
var closeTimeout = 10 * time.Second

// Close waits for the tracked lists to finish loading and for pending list
// writes, then releases the database and the log file.
func (e *Env) Close() error {
	var err error
	e.closeOnce.Do(func() {
		select {
		case <-e.Tracking.Ready():
		case <-time.After(closeTimeout):
			e.Logger.Warn("lists still loading at shutdown", "waited", closeTimeout)
		}
		e.Tracking.Wait()
		err = errors.Join(e.store.Close(), e.logCloser.Close())
	})
	return err
}

// Run boots the TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) (err error) {
	env, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, env.Close())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The TUI shows a loading state until the lists arrive. Quitting early
	// must not cancel the read, or adds made meanwhile would replace the
	// stored lists.
	go env.Tracking.Load(context.WithoutCancel(ctx))

	unsubscribe := env.Auth.Subscribe(func(u *auth.User) {
		if u == nil {
			env.Logger.Info("signed out")
			return
		}
		env.Logger.Info("signed in", "uid", u.UID)
	})
	defer unsubscribe()

	store := &state.Store{}
	pollerDone := StartPoller(ctx, store, env.Catalog, env.Config.PollInterval, env.Logger)
	defer func() {
		cancel()
		<-pollerDone
	}()

	loader := fetch.NewLoader(env.Fetcher)
	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Catalog:   env.Catalog,
		Tracking:  env.Tracking,
		Loader:    loader,
		Auth:      env.Auth,
		Store:     store,
		LogPath:   env.Config.LogPath,
		Prefs:     prefs.Load(opts.PrefsPath),
		PrefsPath: opts.PrefsPath,
	})
	loader.Cancel()
	return uiErr
}
