package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/attempts"
)

type stubAttempts struct {
	list  []attempts.Attempt
	stats attempts.Stats
	err   error
}

func (s *stubAttempts) ListByUser(_ context.Context, _, _ int64, _ int) ([]attempts.Attempt, error) {
	return s.list, s.err
}

func (s *stubAttempts) Stats(_ context.Context, _ int64) (attempts.Stats, error) {
	return s.stats, s.err
}

func attemptsRouter(store AttemptReader) http.Handler {
	r := chi.NewRouter()
	NewAttemptsHandler(store, zerolog.Nop()).Routes(r)
	return r
}

func TestAttemptsList(t *testing.T) {
	store := &stubAttempts{list: []attempts.Attempt{
		{ID: 1, UserID: 5, TargetWord: "hello", IsCorrect: true},
	}}
	h := attemptsRouter(store)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts?user_id=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Attempts []attempts.Attempt `json:"attempts"`
		Count    int                `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Attempts[0].TargetWord != "hello" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAttemptsListEmptyIsArray(t *testing.T) {
	h := attemptsRouter(&stubAttempts{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts?user_id=5", nil))
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["attempts"]) != "[]" {
		t.Errorf("attempts = %s, want []", raw["attempts"])
	}
}

func TestAttemptsListMissingUserID(t *testing.T) {
	rec := httptest.NewRecorder()
	attemptsRouter(&stubAttempts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/attempts", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAttemptsUnavailableWithoutStore(t *testing.T) {
	h := attemptsRouter(nil)

	for _, path := range []string{"/attempts?user_id=1", "/attempts/stats?user_id=1"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", path, rec.Code)
		}
	}
}

func TestAttemptsStats(t *testing.T) {
	store := &stubAttempts{stats: attempts.Stats{
		TotalAttempts:   10,
		CorrectAttempts: 7,
		CorrectRate:     70,
		AvgConfidence:   85,
		AvgAccuracy:     80,
	}}
	rec := httptest.NewRecorder()
	attemptsRouter(store).ServeHTTP(rec, httptest.NewRequest("GET", "/attempts/stats?user_id=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp attempts.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.CorrectRate != 70 {
		t.Errorf("correct_rate = %d, want 70", resp.CorrectRate)
	}
}

func TestAttemptsStoreError(t *testing.T) {
	h := attemptsRouter(&stubAttempts{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/attempts?user_id=5", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
