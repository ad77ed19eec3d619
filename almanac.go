// Package almanac is the content layer of a blog publishing two collections,
// posts and weeks. It enriches entries with reading time, groups them by
// year, season, tag and pin priority, builds site paths and excerpts, and
// serves the results over a small JSON API with an RSS feed and sitemap.
//
// A Library owns every derived view and its caches. The App keeps one
// Library at a time and replaces it whenever the content changes.
package almanac

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// App wires the content source, the current Library and the HTTP server.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo

	log      *zap.Logger
	source   ContentStore
	store    *Store // writable SQLite store; nil when serving a content directory
	renderer Renderer
	library  atomic.Pointer[Library]

	refreshMu    sync.Mutex
	cron         *cron.Cron
	watcher      *fsnotify.Watcher
	loginLimiter *loginLimiter
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		log:    zap.NewNop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.renderer == nil {
		a.renderer = ReadingTime{WordsPerMinute: cfg.WordsPerMinute}
	}
	return a
}

// Init opens the content source and builds the first Library. A store set
// with WithStore takes precedence over the configuration.
func (a *App) Init() error {
	if a.source == nil {
		switch {
		case a.Config.ContentDir != "":
			dir, err := LoadDir(a.Config.ContentDir, a.Config.Location())
			if err != nil {
				return fmt.Errorf("almanac: load content: %w", err)
			}
			a.source = dir
		case a.Config.DatabasePath != "":
			store, err := NewStore(a.Config.DatabasePath)
			if err != nil {
				return fmt.Errorf("almanac: init store: %w", err)
			}
			a.store = store
			a.source = store
		default:
			return errors.New("almanac: content_dir or database_path is required")
		}
	}
	if s, ok := a.source.(*Store); ok {
		a.store = s
	}
	a.library.Store(a.newLibrary())
	return nil
}

func (a *App) newLibrary() *Library {
	return NewLibrary(a.source, a.renderer, a.Config, WithLogger(a.log.Named("library")))
}

// Library returns the current Library.
func (a *App) Library() *Library {
	return a.library.Load()
}

// Refresh reloads the content directory, if one is used, and replaces the
// Library so that every view is derived again.
func (a *App) Refresh() error {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	if dir, ok := a.source.(*DirStore); ok {
		reloaded, err := LoadDir(dir.Root(), a.Config.Location())
		if err != nil {
			a.log.Error("reload content", zap.String("dir", dir.Root()), zap.Error(err))
			return fmt.Errorf("almanac: reload content: %w", err)
		}
		a.source = reloaded
	}
	a.library.Store(a.newLibrary())

	if dupes, err := a.Library().DuplicateSlugs(context.Background()); err != nil {
		a.log.Warn("check slugs", zap.Error(err))
	} else {
		for _, msg := range dupes {
			a.log.Warn(msg)
		}
	}
	a.log.Info("content refreshed")
	return nil
}

// Start initializes the content, middleware, routes and refresh triggers,
// then serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.setupMiddleware()
	a.setupRoutes()
	if err := a.startRefreshers(); err != nil {
		return err
	}
	a.log.Info("listening", zap.String("addr", a.Config.Addr), zap.Bool("dev", a.Config.Dev))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close stops the refresh triggers and closes the store.
func (a *App) Close() error {
	a.stopRefreshers()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
