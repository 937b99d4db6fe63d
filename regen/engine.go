// Package regen regenerates personalized prompt sets when their validity
// window has passed. It offers a synchronous path that awaits the result and
// a fire-and-forget path whose outcome is only observable on the next read.
package regen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-prompt-cache/internal/background"
	"github.com/goliatone/go-prompt-cache/prompt"
)

// ErrEmptyGeneration is returned when the generation service yields zero
// suggestions. An empty set is never stored; callers fall back to the prior
// record or the static defaults.
var ErrEmptyGeneration = errors.New("regen: generation returned no suggestions")

// Generator produces a new ordered suggestion set for a user. It is an
// opaque external call with its own latency and failure profile.
type Generator interface {
	Generate(ctx context.Context, userID string) ([]prompt.Suggestion, error)
}

// Result is the outcome of EnsureFresh. FromCache is true when the
// suggestions came from an existing stored record (fresh or, after a failed
// regeneration, stale) rather than from a generation performed by this call.
type Result struct {
	Suggestions []prompt.Suggestion
	FromCache   bool
}

// Config holds the engine's timing knobs.
type Config struct {
	// ValidityWindow is added to the generation instant to compute a new
	// record's expiration. Defaults to 24h.
	ValidityWindow time.Duration

	// RefreshTimeout bounds a single fire-and-forget regeneration. Defaults
	// to 30s.
	RefreshTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ValidityWindow <= 0 {
		c.ValidityWindow = 24 * time.Hour
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 30 * time.Second
	}
}

// Engine coordinates reads of the prompt store with regeneration calls.
// Concurrent regenerations for the same user are coalesced: the second
// caller reuses the first caller's in-flight generation instead of issuing a
// duplicate external call. The store's atomic upsert keeps writes safe even
// if flights race across processes.
type Engine struct {
	store     prompt.Store
	generator Generator
	runner    *background.Runner
	logger    *slog.Logger
	cfg       Config
	group     singleflight.Group
	now       func() time.Time
}

// New creates an Engine. A nil logger falls back to slog's default.
func New(store prompt.Store, generator Generator, runner *background.Runner, logger *slog.Logger, cfg Config) *Engine {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		generator: generator,
		runner:    runner,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// EnsureFresh returns the user's current suggestions, regenerating first when
// the record is absent or expired. A fresh record is returned immediately
// with FromCache=true and zero external calls. Generation failures are
// recovered locally: the prior record (even if stale) or the static default
// set is served, and the store is left untouched.
func (e *Engine) EnsureFresh(ctx context.Context, userID string) (Result, error) {
	rec, err := e.store.Read(ctx, userID)
	if err != nil && !errors.Is(err, prompt.ErrNotFound) {
		return Result{}, err
	}
	if rec != nil && !rec.Expired(e.now()) {
		return Result{Suggestions: rec.Suggestions, FromCache: true}, nil
	}

	fresh, regenErr := e.regenerate(ctx, userID)
	if regenErr == nil {
		return Result{Suggestions: fresh.Suggestions, FromCache: false}, nil
	}

	e.logger.Warn("prompt regeneration failed, serving fallback",
		"user", userID, "error", regenErr)
	if rec != nil {
		return Result{Suggestions: rec.Suggestions, FromCache: true}, nil
	}
	return Result{Suggestions: prompt.DefaultSuggestions(), FromCache: false}, nil
}

// Refresh synchronously regenerates the user's record if it is absent or
// expired, and reports the failure to the caller. A record that is still
// fresh (possibly because a coalesced flight just renewed it) is a no-op.
// This is the reconciliation sweep's entry point.
func (e *Engine) Refresh(ctx context.Context, userID string) error {
	rec, err := e.store.Read(ctx, userID)
	if err != nil && !errors.Is(err, prompt.ErrNotFound) {
		return err
	}
	if rec != nil && !rec.Expired(e.now()) {
		return nil
	}
	_, err = e.regenerate(ctx, userID)
	return err
}

// TriggerRefreshIfStale starts the same regeneration without awaiting it.
// It never blocks and its errors are confined to the background runner's log
// sink; the outcome is only observable on the next read.
func (e *Engine) TriggerRefreshIfStale(userID string) {
	e.runner.Submit("prompt-refresh:"+userID, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.RefreshTimeout)
		defer cancel()
		return e.Refresh(ctx, userID)
	})
}

// regenerate performs one generation + upsert, coalesced per userID.
func (e *Engine) regenerate(ctx context.Context, userID string) (*prompt.Record, error) {
	v, err, _ := e.group.Do(userID, func() (any, error) {
		suggestions, err := e.generator.Generate(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("regen: generate for %s: %w", userID, err)
		}
		if len(suggestions) == 0 {
			return nil, ErrEmptyGeneration
		}

		expiresAt := e.now().Add(e.cfg.ValidityWindow)
		if err := e.store.Upsert(ctx, userID, suggestions, expiresAt); err != nil {
			return nil, err
		}
		return &prompt.Record{
			UserID:      userID,
			Suggestions: suggestions,
			ExpiresAt:   expiresAt,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*prompt.Record), nil
}
