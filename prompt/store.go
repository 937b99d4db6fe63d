package prompt

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read when no record exists for the user.
var ErrNotFound = errors.New("prompt: record not found")

// Store is the durable source of truth for personalized prompt records.
//
// Upsert is the sole mutation primitive and must replace the row atomically:
// suggestions and expiration always change together, and concurrent upserts
// for the same user resolve last-writer-wins at the store layer.
type Store interface {
	Read(ctx context.Context, userID string) (*Record, error)
	Upsert(ctx context.Context, userID string, suggestions []Suggestion, expiresAt time.Time) error
	ListExpiredBefore(ctx context.Context, t time.Time) ([]*Record, error)
}
