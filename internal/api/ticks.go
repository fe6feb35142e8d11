package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homesim/internal/automation"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// handleListTicks returns recent ticks, newest first.
func (s *Server) handleListTicks(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "tick history disabled")
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	ticks, err := s.history.ListTicks(ctx, limit)
	if err != nil {
		s.logger.Error("listing ticks failed", "error", err)
		writeInternalError(w, "failed to list ticks")
		return
	}
	total, err := s.history.CountTicks(ctx)
	if err != nil {
		s.logger.Error("counting ticks failed", "error", err)
		writeInternalError(w, "failed to count ticks")
		return
	}

	if ticks == nil {
		ticks = []automation.TickRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticks": ticks,
		"count": len(ticks),
		"total": total,
	})
}

// handleGetTick returns one recorded tick.
func (s *Server) handleGetTick(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "tick history disabled")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid tick ID")
		return
	}

	rec, err := s.history.GetTick(r.Context(), id)
	if err != nil {
		if errors.Is(err, automation.ErrTickNotFound) {
			writeNotFound(w, "tick not found")
			return
		}
		s.logger.Error("loading tick failed", "tick_id", id, "error", err)
		writeInternalError(w, "failed to load tick")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// parseHistoryLimit parses ?limit=, defaulting when absent.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}
