package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/audio"
	"github.com/vocably/speech-engine/internal/practice"
	"github.com/vocably/speech-engine/internal/recognize"
	"github.com/vocably/speech-engine/internal/score"
)

// maxUploadBytes caps one audio upload. A minute of 48 kHz stereo WAV is
// well under this.
const maxUploadBytes = 32 << 20

// Evaluator runs the recognition pipeline for the STT endpoints.
type Evaluator interface {
	Evaluate(ctx context.Context, req practice.Request) (practice.Evaluation, error)
	Transcribe(ctx context.Context, audio []byte, hint string) (recognize.Result, error)
}

// STTHandler serves the speech recognition endpoints.
type STTHandler struct {
	svc Evaluator
	log zerolog.Logger
}

func NewSTTHandler(svc Evaluator, log zerolog.Logger) *STTHandler {
	return &STTHandler{svc: svc, log: log.With().Str("handler", "stt").Logger()}
}

// Routes registers the STT endpoints.
func (h *STTHandler) Routes(r chi.Router) {
	r.Post("/stt/recognize-base64", h.RecognizeBase64)
	r.Post("/stt/recognize", h.RecognizeFile)
}

type recognizeBase64Request struct {
	AudioBase64   string `json:"audio_base64"`
	TargetWord    string `json:"target_word"`
	UserID        int64  `json:"user_id"`
	SubjectID     int64  `json:"subject_id"`
	SaveRecording bool   `json:"save_recording"`
}

type recognizeResponse struct {
	RecognizedText     string                   `json:"recognized_text"`
	TargetWord         string                   `json:"target_word"`
	IsCorrect          bool                     `json:"is_correct"`
	Confidence         float64                  `json:"confidence"`
	Accuracy           float64                  `json:"accuracy"`
	PronunciationScore score.PronunciationScore `json:"pronunciation_score"`
	Words              []recognize.Word         `json:"words,omitempty"`
	AudioURL           string                   `json:"audio_url,omitempty"`
}

// RecognizeBase64 handles POST /api/v1/stt/recognize-base64.
// Scores a base64-encoded attempt against its target word.
func (h *STTHandler) RecognizeBase64(w http.ResponseWriter, r *http.Request) {
	var req recognizeBase64Request
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.TargetWord) == "" {
		WriteError(w, http.StatusBadRequest, "target_word is required")
		return
	}

	audioBytes, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid base64 audio", err.Error())
		return
	}
	if len(audioBytes) == 0 {
		WriteError(w, http.StatusBadRequest, "audio is empty")
		return
	}

	ev, err := h.svc.Evaluate(r.Context(), practice.Request{
		Audio:         audioBytes,
		TargetWord:    req.TargetWord,
		UserID:        req.UserID,
		SubjectID:     req.SubjectID,
		SaveRecording: req.SaveRecording,
	})
	if err != nil {
		h.writeSpeechError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, recognizeResponse{
		RecognizedText:     ev.RecognizedText,
		TargetWord:         ev.TargetWord,
		IsCorrect:          ev.IsCorrect,
		Confidence:         ev.Confidence,
		Accuracy:           ev.Accuracy,
		PronunciationScore: ev.Score,
		Words:              ev.Words,
		AudioURL:           ev.AudioURL,
	})
}

type transcribeResponse struct {
	RecognizedText string  `json:"recognized_text"`
	Confidence     float64 `json:"confidence"`
	Success        bool    `json:"success"`
}

// RecognizeFile handles POST /api/v1/stt/recognize.
// Plain transcription of a multipart audio upload, no scoring.
func (h *STTHandler) RecognizeFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	audioBytes, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		WriteErrorDetail(w, http.StatusBadRequest, "upload read failed", err.Error())
		return
	}

	hint := strings.TrimPrefix(filepath.Ext(header.Filename), ".")
	res, err := h.svc.Transcribe(r.Context(), audioBytes, hint)
	if err != nil {
		h.writeSpeechError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, transcribeResponse{
		RecognizedText: res.Text,
		Confidence:     res.Confidence,
		Success:        true,
	})
}

func (h *STTHandler) writeSpeechError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recognize.ErrModelNotLoaded):
		WriteError(w, http.StatusServiceUnavailable, "recognition model not loaded")
	case errors.Is(err, audio.ErrUnsupportedFormat):
		WriteErrorDetail(w, http.StatusBadRequest, "unsupported audio format", err.Error())
	case errors.Is(err, audio.ErrInvalidAudio):
		WriteErrorDetail(w, http.StatusBadRequest, "invalid audio", err.Error())
	case errors.Is(err, recognize.ErrDecode):
		WriteErrorDetail(w, http.StatusUnprocessableEntity, "recognition failed", err.Error())
	default:
		h.log.Error().Err(err).Msg("recognition request failed")
		WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
