package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/actioncore/internal/history"
	"github.com/nerrad567/actioncore/internal/telemetry"
)

// maxLimit caps the limit query parameter.
const maxLimit = 1000

// handleActions returns the latest queue snapshot.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.store.Latest()
	if !ok {
		unavailable(w, r, "no snapshot taken yet")
		return
	}
	writeJSON(w, http.StatusOK, telemetry.SnapshotEvent{RobotID: s.robotID, Snapshot: snap})
}

// handleRecent returns completions held in memory, newest first.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}
	events := s.store.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"completions": events,
		"count":       len(events),
	})
}

// handleHistory returns persisted completions, newest first, optionally
// filtered by runner type.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		unavailable(w, r, "history is not recorded")
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}

	var entries []history.Entry
	if typ := r.URL.Query().Get("type"); typ != "" {
		entries, err = s.history.ListByType(r.Context(), typ, limit)
	} else {
		entries, err = s.history.List(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error("listing history", "error", err)
		internalError(w, r, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// handleHistoryEntry returns a single persisted completion.
func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		unavailable(w, r, "history is not recorded")
		return
	}
	id := chi.URLParam(r, "id")
	entry, err := s.history.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrEntryNotFound) {
			notFound(w, r, "history entry not found")
			return
		}
		s.logger.Error("getting history entry", "id", id, "error", err)
		internalError(w, r, "failed to get history entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// parseLimit reads the limit query parameter. Zero means the default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return min(n, maxLimit), nil
}
