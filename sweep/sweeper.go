// Package sweep implements the scheduled reconciliation pass over expired
// prompt records: find everything whose validity window has passed and
// regenerate it, counting per-item failures without aborting the batch.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-prompt-cache/prompt"
	"github.com/goliatone/go-prompt-cache/regen"
)

// Result is the aggregate report of one sweep invocation. It is ephemeral:
// produced fresh per run and never persisted.
type Result struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Config holds the sweeper's execution knobs.
type Config struct {
	// Concurrency bounds how many regenerations run at once. Defaults to 4.
	Concurrency int

	// ItemTimeout bounds a single user's regeneration; a hung generation
	// call converts to a counted failure instead of stalling the sweep.
	// Defaults to 30s.
	ItemTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.ItemTimeout <= 0 {
		c.ItemTimeout = 30 * time.Second
	}
}

// Sweeper drives the regeneration engine over all expired records. It shares
// the engine and store with the request path but runs on its own schedule.
type Sweeper struct {
	store  prompt.Store
	engine *regen.Engine
	logger *slog.Logger
	cfg    Config
}

// New creates a Sweeper. A nil logger falls back to slog's default.
func New(store prompt.Store, engine *regen.Engine, logger *slog.Logger, cfg Config) *Sweeper {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, engine: engine, logger: logger, cfg: cfg}
}

// RunSweep scans all records expired at now and regenerates each one with
// bounded concurrency. A failure for one user increments Failed and the
// sweep continues; only the initial store scan can fail the run as a whole.
// Running twice with no new expirations in between yields Total=0 on the
// second call.
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) (Result, error) {
	runID := uuid.NewString()

	records, err := s.store.ListExpiredBefore(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("sweep: list expired: %w", err)
	}

	var successful, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			itemCtx, cancel := context.WithTimeout(ctx, s.cfg.ItemTimeout)
			defer cancel()

			if err := s.engine.Refresh(itemCtx, rec.UserID); err != nil {
				failed.Add(1)
				s.logger.Warn("sweep item failed",
					"sweep", runID, "user", rec.UserID, "error", err)
				return nil
			}
			successful.Add(1)
			return nil
		})
	}
	// Item closures always return nil; failures are counted, not propagated.
	_ = g.Wait()

	result := Result{
		Total:      len(records),
		Successful: int(successful.Load()),
		Failed:     int(failed.Load()),
	}
	s.logger.Info("sweep complete",
		"sweep", runID,
		"total", result.Total,
		"successful", result.Successful,
		"failed", result.Failed)
	return result, nil
}
