package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/metrics"
	"github.com/vocably/speech-engine/internal/storage"
	"github.com/vocably/speech-engine/internal/synth"
)

// Synthesizer is the TTS capability consumed by these endpoints.
type Synthesizer interface {
	Synthesize(ctx context.Context, req synth.Request) (synth.Result, error)
	Delete(ctx context.Context, subjectID int64, language string) (bool, error)
	EvictOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// Voice is one synthesis voice. gTTS voices are language-based.
type Voice struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

var voices = []Voice{
	{Code: "en", Name: "English (US)", Language: "en"},
	{Code: "vi", Name: "Vietnamese", Language: "vi"},
}

// TTSHandler serves the synthesis endpoints.
type TTSHandler struct {
	svc Synthesizer
	log zerolog.Logger
}

func NewTTSHandler(svc Synthesizer, log zerolog.Logger) *TTSHandler {
	return &TTSHandler{svc: svc, log: log.With().Str("handler", "tts").Logger()}
}

// Routes registers the TTS endpoints. Cache eviction goes on the admin
// router so it stays behind RequireAuth.
func (h *TTSHandler) Routes(r chi.Router) {
	r.Post("/tts/generate", h.Generate)
	r.Get("/tts/voices", h.Voices)
	r.Delete("/tts/audio/{subjectID}", h.Delete)
}

// AdminRoutes registers maintenance endpoints.
func (h *TTSHandler) AdminRoutes(r chi.Router) {
	r.Post("/tts/evict", h.Evict)
}

type generateRequest struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	SubjectID int64  `json:"subject_id"`
	Slow      bool   `json:"slow"`
}

type generateResponse struct {
	AudioURL string   `json:"audio_url"`
	Duration *float64 `json:"duration,omitempty"`
	Cached   bool     `json:"cached"`
}

// Generate handles POST /api/v1/tts/generate.
func (h *TTSHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}

	res, err := h.svc.Synthesize(r.Context(), synth.Request{
		Text:      req.Text,
		Language:  req.Language,
		SubjectID: req.SubjectID,
		Slow:      req.Slow,
	})
	if err != nil {
		if errors.Is(err, storage.ErrStorage) {
			WriteErrorDetail(w, http.StatusBadGateway, "storage unavailable", err.Error())
			return
		}
		h.log.Error().Err(err).Int64("subject_id", req.SubjectID).Msg("synthesis failed")
		WriteError(w, http.StatusInternalServerError, "synthesis failed")
		return
	}

	if res.Cached {
		metrics.TTSCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.TTSCacheTotal.WithLabelValues("miss").Inc()
	}

	WriteJSON(w, http.StatusOK, generateResponse{
		AudioURL: res.AudioURL,
		Duration: res.Duration,
		Cached:   res.Cached,
	})
}

// Voices handles GET /api/v1/tts/voices. Optional ?language= filter.
func (h *TTSHandler) Voices(w http.ResponseWriter, r *http.Request) {
	out := voices
	if lang, ok := QueryString(r, "language"); ok {
		out = nil
		for _, v := range voices {
			if v.Language == lang {
				out = append(out, v)
			}
		}
	}
	WriteJSON(w, http.StatusOK, map[string][]Voice{"voices": out})
}

// Delete handles DELETE /api/v1/tts/audio/{subjectID}.
func (h *TTSHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subjectID, err := PathInt64(r, "subjectID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid subject id")
		return
	}
	language := r.URL.Query().Get("language")
	if language == "" {
		language = "en"
	}

	deleted, err := h.svc.Delete(r.Context(), subjectID, language)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadGateway, "audio deletion failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "audio deleted",
		"deleted": deleted,
	})
}

// Evict handles POST /api/v1/admin/tts/evict. ?days= defaults to 30.
func (h *TTSHandler) Evict(w http.ResponseWriter, r *http.Request) {
	days := int64(30)
	if d, ok := QueryInt64(r, "days"); ok && d > 0 {
		days = d
	}

	n, err := h.svc.EvictOlderThan(r.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadGateway, "eviction failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"evicted": n, "days": days})
}
