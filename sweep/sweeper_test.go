package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-prompt-cache/internal/background"
	"github.com/goliatone/go-prompt-cache/prompt"
	"github.com/goliatone/go-prompt-cache/regen"
)

type mockStore struct {
	mu      sync.Mutex
	records map[string]*prompt.Record
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]*prompt.Record)}
}

func (m *mockStore) Read(ctx context.Context, userID string) (*prompt.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, prompt.ErrNotFound
	}
	return rec, nil
}

func (m *mockStore) Upsert(ctx context.Context, userID string, suggestions []prompt.Suggestion, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = &prompt.Record{UserID: userID, Suggestions: suggestions, ExpiresAt: expiresAt}
	return nil
}

func (m *mockStore) ListExpiredBefore(ctx context.Context, t time.Time) ([]*prompt.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*prompt.Record
	for _, rec := range m.records {
		if rec.Expired(t) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockStore) addExpired(userID string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[userID] = &prompt.Record{
		UserID:      userID,
		Suggestions: []prompt.Suggestion{{Text: "stale"}},
		ExpiresAt:   now.Add(-time.Hour),
	}
}

// userGenerator fails for users listed in failing and blocks for users listed
// in blocking until the context is canceled.
type userGenerator struct {
	failing  map[string]bool
	blocking map[string]bool
}

func (g *userGenerator) Generate(ctx context.Context, userID string) ([]prompt.Suggestion, error) {
	if g.blocking[userID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.failing[userID] {
		return nil, errors.New("generation failed")
	}
	return []prompt.Suggestion{{Text: "fresh for " + userID}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSweeper(t *testing.T, store prompt.Store, gen regen.Generator, cfg Config) *Sweeper {
	t.Helper()
	runner := background.NewRunner(4, discardLogger())
	t.Cleanup(runner.Close)
	engine := regen.New(store, gen, runner, discardLogger(), regen.Config{ValidityWindow: 24 * time.Hour})
	return New(store, engine, discardLogger(), cfg)
}

func TestRunSweep_EmptyStore(t *testing.T) {
	sweeper := newTestSweeper(t, newMockStore(), &userGenerator{}, Config{})

	res, err := sweeper.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}
	if res != (Result{}) {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRunSweep_RegeneratesAllExpired(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	for _, id := range []string{"user-1", "user-2", "user-3"} {
		store.addExpired(id, now)
	}
	store.records["fresh-user"] = &prompt.Record{
		UserID:    "fresh-user",
		ExpiresAt: now.Add(time.Hour),
	}
	sweeper := newTestSweeper(t, store, &userGenerator{}, Config{Concurrency: 2})

	res, err := sweeper.RunSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}
	if res.Total != 3 || res.Successful != 3 || res.Failed != 0 {
		t.Errorf("unexpected result %+v", res)
	}

	for _, id := range []string{"user-1", "user-2", "user-3"} {
		rec, err := store.Read(context.Background(), id)
		if err != nil {
			t.Fatalf("Read %s failed: %v", id, err)
		}
		if rec.Expired(time.Now()) {
			t.Errorf("%s should be fresh after the sweep", id)
		}
	}
}

func TestRunSweep_FailuresAreIsolated(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	for _, id := range []string{"user-1", "user-2", "user-3", "user-4"} {
		store.addExpired(id, now)
	}
	gen := &userGenerator{failing: map[string]bool{"user-2": true, "user-4": true}}
	sweeper := newTestSweeper(t, store, gen, Config{})

	res, err := sweeper.RunSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("per-item failures must not fail the run: %v", err)
	}
	if res.Total != 4 || res.Successful != 2 || res.Failed != 2 {
		t.Errorf("unexpected result %+v", res)
	}

	// Failed users keep their stale records and stay eligible for the next run.
	rec, err := store.Read(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !rec.Expired(time.Now()) {
		t.Error("failed item must remain expired")
	}
}

func TestRunSweep_SecondRunFindsNothing(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	store.addExpired("user-1", now)
	store.addExpired("user-2", now)
	sweeper := newTestSweeper(t, store, &userGenerator{}, Config{})

	first, err := sweeper.RunSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("first RunSweep failed: %v", err)
	}
	if first.Successful != 2 {
		t.Fatalf("unexpected first result %+v", first)
	}

	second, err := sweeper.RunSweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("second RunSweep failed: %v", err)
	}
	if second.Total != 0 {
		t.Errorf("expected nothing left to sweep, got %+v", second)
	}
}

func TestRunSweep_HungItemConvertsToFailure(t *testing.T) {
	store := newMockStore()
	now := time.Now()
	store.addExpired("hung-user", now)
	store.addExpired("good-user", now)
	gen := &userGenerator{blocking: map[string]bool{"hung-user": true}}
	sweeper := newTestSweeper(t, store, gen, Config{ItemTimeout: 50 * time.Millisecond})

	done := make(chan struct{})
	var res Result
	var err error
	go func() {
		res, err = sweeper.RunSweep(context.Background(), now)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep stalled on a hung item")
	}
	if err != nil {
		t.Fatalf("RunSweep failed: %v", err)
	}
	if res.Total != 2 || res.Successful != 1 || res.Failed != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRunSweep_ScanErrorFailsRun(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("database unreachable")
	sweeper := newTestSweeper(t, store, &userGenerator{}, Config{})

	if _, err := sweeper.RunSweep(context.Background(), time.Now()); err == nil {
		t.Fatal("expected scan error to fail the run")
	}
}
