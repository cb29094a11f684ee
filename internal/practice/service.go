// Package practice orchestrates one pronunciation attempt: normalize the
// uploaded audio, recognize it, score it against the target phrase, and
// optionally persist the attempt and the learner's recording.
package practice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/attempts"
	"github.com/vocably/speech-engine/internal/audio"
	"github.com/vocably/speech-engine/internal/metrics"
	"github.com/vocably/speech-engine/internal/recognize"
	"github.com/vocably/speech-engine/internal/score"
	"github.com/vocably/speech-engine/internal/storage"
)

// Recognizer is the streaming recognition capability consumed by this service.
type Recognizer interface {
	Recognize(ctx context.Context, pcm audio.PCM) (recognize.Result, error)
	Ready() bool
}

// AttemptSink persists scored attempts. Optional.
type AttemptSink interface {
	Insert(ctx context.Context, a *attempts.Attempt) (int64, error)
}

// Request is one inbound pronunciation attempt.
type Request struct {
	Audio         []byte
	FormatHint    string // filename extension of the upload, may be empty
	TargetWord    string
	UserID        int64
	SubjectID     int64
	SaveRecording bool
}

// Evaluation is the scored outcome of one attempt.
type Evaluation struct {
	RecognizedText string
	TargetWord     string
	IsCorrect      bool
	Confidence     float64
	Accuracy       float64
	Score          score.PronunciationScore
	Words          []recognize.Word
	AudioURL       string // recording location when SaveRecording was set
}

type Service struct {
	engine     Recognizer
	store      storage.ObjectStore
	sink       AttemptSink
	targetRate int
	log        zerolog.Logger
}

// NewService wires the evaluation pipeline. store may be nil when recordings
// are not kept; sink may be nil when attempts are not persisted.
func NewService(engine Recognizer, store storage.ObjectStore, sink AttemptSink, targetRate int, log zerolog.Logger) *Service {
	return &Service{
		engine:     engine,
		store:      store,
		sink:       sink,
		targetRate: targetRate,
		log:        log.With().Str("component", "practice").Logger(),
	}
}

// Ready reports whether the recognizer can take requests.
func (s *Service) Ready() bool {
	return s.engine != nil && s.engine.Ready()
}

// Transcribe runs recognition without scoring. Backs the plain STT endpoint.
func (s *Service) Transcribe(ctx context.Context, audioBytes []byte, hint string) (recognize.Result, error) {
	start := time.Now()
	pcm, err := audio.Normalize(ctx, audioBytes, hint, s.targetRate)
	if err != nil {
		metrics.RecognitionsTotal.WithLabelValues("failed").Inc()
		return recognize.Result{}, err
	}

	res, err := s.engine.Recognize(ctx, pcm)
	if err != nil {
		metrics.RecognitionsTotal.WithLabelValues("failed").Inc()
		return recognize.Result{}, err
	}

	metrics.RecognitionsTotal.WithLabelValues("ok").Inc()
	metrics.RecognitionDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// Evaluate scores one attempt against its target word.
func (s *Service) Evaluate(ctx context.Context, req Request) (Evaluation, error) {
	start := time.Now()
	pcm, err := audio.Normalize(ctx, req.Audio, req.FormatHint, s.targetRate)
	if err != nil {
		metrics.RecognitionsTotal.WithLabelValues("failed").Inc()
		return Evaluation{}, err
	}

	res, err := s.engine.Recognize(ctx, pcm)
	if err != nil {
		metrics.RecognitionsTotal.WithLabelValues("failed").Inc()
		return Evaluation{}, err
	}
	metrics.RecognitionsTotal.WithLabelValues("ok").Inc()
	metrics.RecognitionDuration.Observe(time.Since(start).Seconds())

	recognized := score.Normalize(res.Text)
	target := score.Normalize(req.TargetWord)
	ps := score.Score(res.Text, req.TargetWord, res.Confidence)

	ev := Evaluation{
		RecognizedText: recognized,
		TargetWord:     target,
		IsCorrect:      recognized == target,
		Confidence:     res.Confidence,
		Accuracy:       ps.Accuracy,
		Score:          ps,
		Words:          res.Words,
	}

	s.log.Info().
		Str("recognized", recognized).
		Str("target", target).
		Bool("correct", ev.IsCorrect).
		Float64("confidence", ev.Confidence).
		Float64("accuracy", ev.Accuracy).
		Msg("attempt evaluated")

	if req.SaveRecording && s.store != nil {
		// Recording upload is best effort; the evaluation stands either way.
		key := recordingKey(req.UserID, req.SubjectID)
		if err := s.store.Save(ctx, key, audio.EncodeWAV(pcm), "audio/wav"); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("recording upload failed")
		} else {
			ev.AudioURL = s.store.PublicURL(key)
		}
	}

	if s.sink != nil {
		s.persist(ctx, req, ev)
	}

	return ev, nil
}

func (s *Service) persist(ctx context.Context, req Request, ev Evaluation) {
	words, err := json.Marshal(ev.Words)
	if err != nil {
		words = nil
	}
	attempt := &attempts.Attempt{
		UserID:         req.UserID,
		SubjectID:      req.SubjectID,
		RecognizedText: ev.RecognizedText,
		TargetWord:     ev.TargetWord,
		IsCorrect:      ev.IsCorrect,
		Confidence:     ev.Confidence,
		Accuracy:       ev.Accuracy,
		Words:          words,
		AudioURL:       ev.AudioURL,
	}
	if _, err := s.sink.Insert(ctx, attempt); err != nil {
		s.log.Warn().Err(err).Int64("user_id", req.UserID).Msg("attempt persistence failed")
		return
	}
	metrics.AttemptsSavedTotal.Inc()
}

func recordingKey(userID, subjectID int64) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("recordings/user_%d/subject_%d_%s.wav", userID, subjectID, hex.EncodeToString(b))
}
