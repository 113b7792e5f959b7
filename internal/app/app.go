// Package app wires the client, session, services, query cache and hooks
// into one object a frontend or CLI can hold.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devfolio/portfolio-sync/internal/config"
	"github.com/devfolio/portfolio-sync/internal/hooks"
	"github.com/devfolio/portfolio-sync/internal/query"
	"github.com/devfolio/portfolio-sync/internal/services"
	"github.com/devfolio/portfolio-sync/internal/session"
	"github.com/devfolio/portfolio-sync/pkg/client"
)

// Navigator moves the user to another route. The 401 handler uses it to
// send the user to the login page after the session is wiped.
type Navigator interface {
	Redirect(route string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(route string)

// Redirect implements Navigator
func (f NavigatorFunc) Redirect(route string) { f(route) }

type logNavigator struct {
	logger *slog.Logger
}

func (n logNavigator) Redirect(route string) {
	n.logger.Info("redirect requested", "route", route)
}

// App holds every component
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Client   *client.Client
	Services *services.Services
	Session  *session.Store
	Cache    *query.Client
	Hooks    *hooks.Hooks

	navigator  Navigator
	storage    session.TokenStorage
	httpClient *http.Client
	redis      *redis.Client
	collector  *query.Collector

	unsubscribe func()
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// Option configures the app
type Option func(*App)

// WithLogger sets the logger used by every component
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithNavigator sets the redirect target for expired sessions
func WithNavigator(n Navigator) Option {
	return func(a *App) {
		a.navigator = n
	}
}

// WithTokenStorage overrides the storage selected by config
func WithTokenStorage(storage session.TokenStorage) Option {
	return func(a *App) {
		a.storage = storage
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// New builds the app from cfg
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{Config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		a.Logger = cfg.Log.NewLogger()
	}
	if a.navigator == nil {
		a.navigator = logNavigator{logger: a.Logger}
	}

	if a.storage == nil {
		storage, err := a.openStorage()
		if err != nil {
			return nil, err
		}
		a.storage = storage
	}

	a.Cache = query.New(query.WithLogger(a.Logger))
	a.collector = query.NewCollector(a.Cache, cfg.Cache.GCInterval, cfg.Cache.GCTime, a.Logger)

	clientOpts := []client.Option{
		client.WithLogger(a.Logger),
		client.WithTokenSource(client.TokenFunc(func() string { return a.Session.AccessToken() })),
		client.WithUnauthorizedHandler(client.UnauthorizedFunc(a.handleUnauthorized)),
	}
	if a.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(a.httpClient))
	} else {
		clientOpts = append(clientOpts, client.WithTimeout(cfg.API.Timeout))
	}
	a.Client = client.New(cfg.API.BaseURL, clientOpts...)

	a.Services = services.New(a.Client)
	a.Session = session.NewStore(
		services.NewAccount(a.Services.Auth, a.Services.Profile),
		a.storage,
		session.WithLogger(a.Logger),
	)

	// Cached "my data" must never outlive the session it was fetched for
	a.unsubscribe = a.Session.Subscribe(func(snap session.Snapshot) {
		if snap.State == session.Anonymous {
			a.Cache.Clear()
		}
	})

	a.Hooks = hooks.New(a.Cache, a.Services, a.Session, hooks.Config{
		ProfileStaleTime:    cfg.Cache.ProfileStaleTime,
		SkillsStaleTime:     cfg.Cache.SkillsStaleTime,
		CategoriesStaleTime: cfg.Cache.CategoriesStaleTime,
		DataStaleTime:       cfg.Cache.DataStaleTime,
		GalleryStaleTime:    cfg.Cache.GalleryStaleTime,
		DetailStaleTime:     cfg.Cache.DetailStaleTime,
	})

	return a, nil
}

func (a *App) openStorage() (session.TokenStorage, error) {
	switch a.Config.Session.Storage {
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil
	case config.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rdb, err := session.OpenRedis(ctx, a.Config.Redis.Address, a.Config.Redis.Password, a.Config.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		return session.NewRedisStorage(rdb, a.Config.Session.RedisPrefix), nil
	case config.StorageFile, "":
		path := a.Config.Session.File
		if path == "" {
			path = session.DefaultFilePath()
		}
		return session.NewFileStorage(path), nil
	default:
		return nil, fmt.Errorf("unknown session storage: %q", a.Config.Session.Storage)
	}
}

// handleUnauthorized ends the session when token is still the current
// one, then drops every cached query and sends the user to the login
// route. A 401 for a replaced token changes nothing.
func (a *App) handleUnauthorized(token string) {
	if !a.Session.ExpireToken(token) {
		return
	}
	a.Cache.Clear()
	a.navigator.Redirect(a.Config.API.LoginRoute)
}

// Start restores the persisted session and starts the cache collector.
// The returned channel yields the outcome of the session restore.
func (a *App) Start(ctx context.Context) <-chan error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.collector.Start(ctx)
	return a.Session.Rehydrate(ctx)
}

// Close stops background work and releases connections
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.unsubscribe()
		a.Cache.Close()
		if a.redis != nil {
			if cerr := a.redis.Close(); cerr != nil {
				err = fmt.Errorf("failed to close redis: %w", cerr)
			}
		}
	})
	return err
}
