package prompt

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var storeSeq int

func newTestStore(t *testing.T) *BunStore {
	t.Helper()
	storeSeq++
	dsn := fmt.Sprintf("file:prompts_test_%d?mode=memory&cache=shared", storeSeq)
	store, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return store
}

func TestBunStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBunStore_UpsertAndRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	suggestions := []Suggestion{
		{Text: "Summarize my unread messages"},
		{Text: "Draft a reply to the latest thread"},
	}
	expiresAt := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)

	if err := store.Upsert(ctx, "user-1", suggestions, expiresAt); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	rec, err := store.Read(ctx, "user-1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if rec.UserID != "user-1" {
		t.Errorf("unexpected user id %q", rec.UserID)
	}
	if len(rec.Suggestions) != 2 || rec.Suggestions[0].Text != suggestions[0].Text {
		t.Errorf("unexpected suggestions: %+v", rec.Suggestions)
	}
	if !rec.ExpiresAt.Equal(expiresAt) {
		t.Errorf("expected expiration %v, got %v", expiresAt, rec.ExpiresAt)
	}
}

func TestBunStore_UpsertReplacesAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []Suggestion{{Text: "old suggestion"}}
	second := []Suggestion{{Text: "new suggestion one"}, {Text: "new suggestion two"}}
	firstExpiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	secondExpiry := firstExpiry.Add(24 * time.Hour)

	if err := store.Upsert(ctx, "user-1", first, firstExpiry); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, "user-1", second, secondExpiry); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	rec, err := store.Read(ctx, "user-1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(rec.Suggestions) != 2 || rec.Suggestions[0].Text != "new suggestion one" {
		t.Errorf("expected replacement suggestions, got %+v", rec.Suggestions)
	}
	if !rec.ExpiresAt.Equal(secondExpiry) {
		t.Errorf("expected expiration %v, got %v", secondExpiry, rec.ExpiresAt)
	}
}

func TestBunStore_ListExpiredBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	fixtures := []struct {
		userID  string
		expires time.Time
	}{
		{"stale-old", now.Add(-2 * time.Hour)},
		{"stale-new", now.Add(-time.Minute)},
		{"fresh", now.Add(time.Hour)},
	}
	for _, f := range fixtures {
		if err := store.Upsert(ctx, f.userID, []Suggestion{{Text: "s"}}, f.expires); err != nil {
			t.Fatalf("Upsert %s failed: %v", f.userID, err)
		}
	}

	expired, err := store.ListExpiredBefore(ctx, now)
	if err != nil {
		t.Fatalf("ListExpiredBefore failed: %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("expected 2 expired records, got %d", len(expired))
	}
	if expired[0].UserID != "stale-old" || expired[1].UserID != "stale-new" {
		t.Errorf("expected oldest-first ordering, got %s then %s", expired[0].UserID, expired[1].UserID)
	}
}

func TestRecord_Expired(t *testing.T) {
	now := time.Now()
	rec := &Record{ExpiresAt: now}

	if !rec.Expired(now) {
		t.Error("record at its deadline should count as expired")
	}
	if !rec.Expired(now.Add(time.Second)) {
		t.Error("record past its deadline should count as expired")
	}
	if rec.Expired(now.Add(-time.Second)) {
		t.Error("record before its deadline should not count as expired")
	}
}

func TestDefaultSuggestions_ReturnsCopy(t *testing.T) {
	a := DefaultSuggestions()
	if len(a) == 0 {
		t.Fatal("expected non-empty defaults")
	}
	a[0].Text = "mutated"

	b := DefaultSuggestions()
	if b[0].Text == "mutated" {
		t.Error("callers must not be able to mutate the shared defaults")
	}
}
