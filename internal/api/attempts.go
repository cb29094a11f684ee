package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/attempts"
)

// AttemptReader reads persisted attempts. nil means persistence is disabled.
type AttemptReader interface {
	ListByUser(ctx context.Context, userID, subjectID int64, limit int) ([]attempts.Attempt, error)
	Stats(ctx context.Context, userID int64) (attempts.Stats, error)
}

// AttemptsHandler serves attempt history and statistics.
type AttemptsHandler struct {
	store AttemptReader
	log   zerolog.Logger
}

func NewAttemptsHandler(store AttemptReader, log zerolog.Logger) *AttemptsHandler {
	return &AttemptsHandler{store: store, log: log.With().Str("handler", "attempts").Logger()}
}

// Routes registers the attempt endpoints.
func (h *AttemptsHandler) Routes(r chi.Router) {
	r.Get("/attempts", h.List)
	r.Get("/attempts/stats", h.Stats)
}

// List handles GET /api/v1/attempts?user_id=&subject_id=&limit=.
func (h *AttemptsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteError(w, http.StatusServiceUnavailable, "attempt persistence not configured")
		return
	}
	userID, ok := QueryInt64(r, "user_id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	subjectID, _ := QueryInt64(r, "subject_id")
	p := ParsePagination(r)

	list, err := h.store.ListByUser(r.Context(), userID, subjectID, p.Limit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("attempt listing failed")
		WriteError(w, http.StatusInternalServerError, "attempt listing failed")
		return
	}
	if list == nil {
		list = []attempts.Attempt{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"attempts": list,
		"count":    len(list),
	})
}

// Stats handles GET /api/v1/attempts/stats?user_id=.
func (h *AttemptsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteError(w, http.StatusServiceUnavailable, "attempt persistence not configured")
		return
	}
	userID, ok := QueryInt64(r, "user_id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	stats, err := h.store.Stats(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("stats query failed")
		WriteError(w, http.StatusInternalServerError, "stats query failed")
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
