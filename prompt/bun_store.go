package prompt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/vmihailenco/msgpack/v5"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// promptRow is the bun model backing Record. Suggestions persist as a
// msgpack-encoded blob so the column schema is independent of the suggestion
// shape.
type promptRow struct {
	bun.BaseModel `bun:"table:personalized_prompts,alias:pp"`

	UserID    string    `bun:"user_id,pk"`
	Prompts   []byte    `bun:"prompts,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// BunStore implements Store on a bun-managed relational database.
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps an existing bun.DB.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// NewSQLiteStore opens a sqlite database at dsn and returns a store over it.
func NewSQLiteStore(dsn string) (*BunStore, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("prompt: open sqlite: %w", err)
	}
	return &BunStore{db: bun.NewDB(sqldb, sqlitedialect.New())}, nil
}

// NewPostgresStore opens a postgres database at dsn and returns a store over it.
func NewPostgresStore(dsn string) (*BunStore, error) {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("prompt: open postgres: %w", err)
	}
	return &BunStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the backing table if it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*promptRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prompt: create table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *BunStore) Close() error {
	return s.db.Close()
}

// Read returns the record for userID, or ErrNotFound.
func (s *BunStore) Read(ctx context.Context, userID string) (*Record, error) {
	row := new(promptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("prompt: read %s: %w", userID, err)
	}
	return decodeRow(row)
}

// Upsert replaces the user's row in a single statement: prompts and
// expiration change together or not at all, and concurrent writers resolve
// last-writer-wins.
func (s *BunStore) Upsert(ctx context.Context, userID string, suggestions []Suggestion, expiresAt time.Time) error {
	blob, err := msgpack.Marshal(suggestions)
	if err != nil {
		return fmt.Errorf("prompt: encode suggestions: %w", err)
	}

	row := &promptRow{
		UserID:    userID,
		Prompts:   blob,
		ExpiresAt: expiresAt.UTC(),
	}

	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("prompts = EXCLUDED.prompts").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("prompt: upsert %s: %w", userID, err)
	}
	return nil
}

// ListExpiredBefore returns every record whose expiration has passed at t,
// oldest first.
func (s *BunStore) ListExpiredBefore(ctx context.Context, t time.Time) ([]*Record, error) {
	var rows []promptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("expires_at < ?", t.UTC()).
		Order("expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("prompt: list expired: %w", err)
	}

	records := make([]*Record, 0, len(rows))
	for i := range rows {
		rec, err := decodeRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row *promptRow) (*Record, error) {
	var suggestions []Suggestion
	if err := msgpack.Unmarshal(row.Prompts, &suggestions); err != nil {
		return nil, fmt.Errorf("prompt: decode suggestions for %s: %w", row.UserID, err)
	}
	return &Record{
		UserID:      row.UserID,
		Suggestions: suggestions,
		ExpiresAt:   row.ExpiresAt,
	}, nil
}
