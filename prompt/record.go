// Package prompt holds the personalized prompt domain model and its durable
// store. One record exists per user; it is created on first generation,
// replaced atomically on regeneration, and never partially written.
package prompt

import (
	"time"
)

// Suggestion is a single short prompt suggestion shown to the user.
type Suggestion struct {
	Text string `json:"text" msgpack:"text"`
}

// Record is the persisted per-user prompt set. ExpiresAt is the instant of
// the last successful generation plus the validity window; a user with no
// generation yet has no record at all, never a null-filled one.
type Record struct {
	UserID      string       `json:"user_id"`
	Suggestions []Suggestion `json:"suggestions"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Expired reports whether the record's validity window has passed at the
// given instant. The deadline itself counts as expired.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
