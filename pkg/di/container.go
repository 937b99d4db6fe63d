// Package di wires the personalization components together. Every piece of
// process-wide state — the session cache, the read-through prompt cache, the
// background runner — is constructed and owned here explicitly, created at
// process start and released by Close at shutdown.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-prompt-cache/cache"
	"github.com/goliatone/go-prompt-cache/genai"
	"github.com/goliatone/go-prompt-cache/httpapi"
	"github.com/goliatone/go-prompt-cache/internal/background"
	"github.com/goliatone/go-prompt-cache/internal/config"
	"github.com/goliatone/go-prompt-cache/prompt"
	"github.com/goliatone/go-prompt-cache/promptcache"
	"github.com/goliatone/go-prompt-cache/regen"
	"github.com/goliatone/go-prompt-cache/session"
	"github.com/goliatone/go-prompt-cache/sweep"
)

// Options carries injectable collaborators. Zero values select the real
// implementations built from configuration; tests substitute fakes.
type Options struct {
	Logger           *slog.Logger
	IdentityProvider session.IdentityProvider
	Generator        regen.Generator
	Store            prompt.Store
}

// Container provides dependency injection for the personalization cache
// components and manages their lifecycle.
type Container struct {
	cfg           config.Config
	logger        *slog.Logger
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	sessionStore  *cache.TTLStore[session.Record]
	resolver      *session.Resolver
	baseStore     prompt.Store
	cachedStore   prompt.Store
	runner        *background.Runner
	engine        *regen.Engine
	sweeper       *sweep.Sweeper
	ownsStore     bool
}

// NewContainer builds the full component graph from cfg.
func NewContainer(cfg config.Config, opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheService, err := cache.NewCacheService(cache.Config{
		Capacity:           cfg.PromptCache.Capacity,
		NumShards:          cfg.PromptCache.NumShards,
		TTL:                cfg.PromptCache.TTL.Std(),
		EvictionPercentage: cfg.PromptCache.EvictionPercentage,
		EvictionInterval:   cfg.PromptCache.EvictionInterval.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("di: cache service: %w", err)
	}

	keySerializer := cache.NewDefaultKeySerializer()

	baseStore := opts.Store
	ownsStore := false
	if baseStore == nil {
		bunStore, err := openStore(cfg.Database)
		if err != nil {
			return nil, err
		}
		baseStore = bunStore
		ownsStore = true
	}
	cachedStore := promptcache.New(baseStore, cacheService, keySerializer)

	sessionStore := cache.NewTTLStore[session.Record](
		cfg.SessionCache.TTL.Std(),
		cfg.SessionCache.JanitorInterval.Std(),
	)

	provider := opts.IdentityProvider
	if provider == nil {
		provider = session.NewHTTPIdentityProvider(cfg.Identity.BaseURL, nil)
	}
	resolver := session.NewResolver(provider, sessionStore)

	generator := opts.Generator
	if generator == nil {
		generator = genai.NewOpenAIGenerator(
			cfg.Generation.APIKey,
			cfg.Generation.BaseURL,
			cfg.Generation.Model,
			cfg.Generation.Count,
			nil,
		)
	}

	runner := background.NewRunner(cfg.Regeneration.MaxBackground, logger)
	engine := regen.New(cachedStore, generator, runner, logger, regen.Config{
		ValidityWindow: cfg.Regeneration.ValidityWindow.Std(),
		RefreshTimeout: cfg.Regeneration.RefreshTimeout.Std(),
	})
	sweeper := sweep.New(cachedStore, engine, logger, sweep.Config{
		Concurrency: cfg.Sweep.Concurrency,
		ItemTimeout: cfg.Sweep.ItemTimeout.Std(),
	})

	return &Container{
		cfg:           cfg,
		logger:        logger,
		cacheService:  cacheService,
		keySerializer: keySerializer,
		sessionStore:  sessionStore,
		resolver:      resolver,
		baseStore:     baseStore,
		cachedStore:   cachedStore,
		runner:        runner,
		engine:        engine,
		sweeper:       sweeper,
		ownsStore:     ownsStore,
	}, nil
}

func openStore(cfg config.DatabaseConfig) (*prompt.BunStore, error) {
	switch cfg.Driver {
	case "postgres":
		return prompt.NewPostgresStore(cfg.DSN)
	default:
		return prompt.NewSQLiteStore(cfg.DSN)
	}
}

// Init prepares the durable store (schema creation). Call once at startup.
func (c *Container) Init(ctx context.Context) error {
	if bunStore, ok := c.baseStore.(*prompt.BunStore); ok {
		return bunStore.Init(ctx)
	}
	return nil
}

// Close drains the background runner and releases cache and store resources.
func (c *Container) Close() error {
	c.runner.Close()
	c.sessionStore.Close()
	if c.ownsStore {
		if bunStore, ok := c.baseStore.(*prompt.BunStore); ok {
			return bunStore.Close()
		}
	}
	return nil
}

// Server builds the HTTP surface over the container's components.
func (c *Container) Server() *httpapi.Server {
	return httpapi.NewServer(c.resolver, c.cachedStore, c.engine, c.sweeper, c.cfg.HTTP.SweepToken, c.logger)
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer { return c.keySerializer }

// Resolver returns the session resolver.
func (c *Container) Resolver() *session.Resolver { return c.resolver }

// Store returns the cached prompt store.
func (c *Container) Store() prompt.Store { return c.cachedStore }

// Engine returns the regeneration engine.
func (c *Container) Engine() *regen.Engine { return c.engine }

// Sweeper returns the reconciliation sweeper.
func (c *Container) Sweeper() *sweep.Sweeper { return c.sweeper }
