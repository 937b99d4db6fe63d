// Package httpapi exposes the request-path suggestions endpoint and the
// scheduler-only sweep trigger.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-prompt-cache/prompt"
	"github.com/goliatone/go-prompt-cache/regen"
	"github.com/goliatone/go-prompt-cache/session"
	"github.com/goliatone/go-prompt-cache/sweep"
)

// SweepTokenHeader carries the shared secret that gates the sweep trigger.
const SweepTokenHeader = "X-Sweep-Token"

// Server wires the personalization components behind HTTP handlers.
type Server struct {
	resolver   *session.Resolver
	store      prompt.Store
	engine     *regen.Engine
	sweeper    *sweep.Sweeper
	sweepToken string
	logger     *slog.Logger
	now        func() time.Time
}

// NewServer creates a Server. An empty sweepToken disables the sweep trigger
// endpoint entirely. A nil logger falls back to slog's default.
func NewServer(resolver *session.Resolver, store prompt.Store, engine *regen.Engine, sweeper *sweep.Sweeper, sweepToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		resolver:   resolver,
		store:      store,
		engine:     engine,
		sweeper:    sweeper,
		sweepToken: sweepToken,
		logger:     logger,
		now:        time.Now,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/suggestions", s.handleSuggestions)
	mux.HandleFunc("POST /internal/sweep", s.handleSweep)
	return mux
}

type suggestionsResponse struct {
	Suggestions  []prompt.Suggestion `json:"suggestions"`
	Personalized bool                `json:"personalized"`
}

// handleSuggestions returns the caller's current prompt set. The response is
// always fresh, stale, or default content; provider and generation failures
// never surface here.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := s.resolver.Resolve(ctx, bearerToken(r))
	if err != nil {
		// Identity outage degrades to the anonymous experience.
		s.logger.Warn("session resolution failed", "error", err)
		rec = nil
	}
	if rec == nil || rec.Anonymous() {
		writeJSON(w, http.StatusOK, suggestionsResponse{
			Suggestions: prompt.DefaultSuggestions(),
		})
		return
	}

	userID := rec.User.ID
	record, err := s.store.Read(ctx, userID)
	if err != nil && !errors.Is(err, prompt.ErrNotFound) {
		s.logger.Error("prompt read failed", "user", userID, "error", err)
	}

	// Respond immediately with whatever we have; freshness is the engine's
	// problem and happens off the response path.
	s.engine.TriggerRefreshIfStale(userID)

	if record == nil {
		writeJSON(w, http.StatusOK, suggestionsResponse{
			Suggestions: prompt.DefaultSuggestions(),
		})
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions:  record.Suggestions,
		Personalized: true,
	})
}

// handleSweep runs the reconciliation sweep on behalf of the external
// scheduler. An invalid or missing token is rejected before any store access.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeSweep(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "invalid sweep token",
		})
		return
	}

	result, err := s.sweeper.RunSweep(r.Context(), s.now())
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "sweep failed",
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) authorizeSweep(r *http.Request) bool {
	if s.sweepToken == "" {
		return false
	}
	got := r.Header.Get(SweepTokenHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.sweepToken)) == 1
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
