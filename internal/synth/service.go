// Package synth renders vocabulary audio and caches it by content in the
// object store, so identical requests resolve to the same stored artifact.
package synth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/storage"
)

// Renderer turns text into an audio byte stream. External capability,
// consumed not built.
type Renderer interface {
	Render(ctx context.Context, text, language string, slow bool) ([]byte, error)
}

// Request are the synthesis parameters that address a cached artifact.
type Request struct {
	Text      string
	Language  string
	SubjectID int64
	Slow      bool
}

// Result is the resolved audio reference. Duration is nil on the cached-hit
// path: it is unknown there, not guessed.
type Result struct {
	AudioURL string
	Duration *float64
	Cached   bool
}

// Service implements the content-addressed cache over an object store.
// Stateless in-process; the store is the sole source of truth for membership.
type Service struct {
	store        storage.ObjectStore
	renderer     Renderer
	cacheEnabled bool
	log          zerolog.Logger
}

func NewService(store storage.ObjectStore, renderer Renderer, cacheEnabled bool, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		renderer:     renderer,
		cacheEnabled: cacheEnabled,
		log:          log.With().Str("component", "synth").Logger(),
	}
}

// Synthesize resolves a request to a stored artifact: a cache hit returns the
// existing object's URL; a miss renders, uploads under the derived key, and
// returns the new URL plus the measured duration.
//
// There is deliberately no lock between the existence probe and the upload.
// Two concurrent misses for one key both render and both upload; the second
// write wins and both calls succeed with the same URL.
func (s *Service) Synthesize(ctx context.Context, req Request) (Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{}, fmt.Errorf("text cannot be empty")
	}
	language := req.Language
	if language == "" {
		language = "en"
	}

	key := Key(text, language, req.SubjectID)

	if s.cacheEnabled && s.store.Exists(ctx, key) {
		s.log.Debug().Str("key", key).Msg("cache hit")
		return Result{AudioURL: s.store.PublicURL(key), Cached: true}, nil
	}

	s.log.Info().
		Int64("subject_id", req.SubjectID).
		Str("language", language).
		Bool("slow", req.Slow).
		Msg("rendering tts audio")

	data, err := s.renderer.Render(ctx, text, language, req.Slow)
	if err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	duration := probeDuration(data)

	if err := s.store.Save(ctx, key, data, "audio/mpeg"); err != nil {
		return Result{}, err
	}

	return Result{
		AudioURL: s.store.PublicURL(key),
		Duration: duration,
		Cached:   false,
	}, nil
}

// Delete removes every cached artifact for a subject. All of the subject's
// entries go regardless of language, since the language is buried in the
// hash and cannot be listed separately.
func (s *Service) Delete(ctx context.Context, subjectID int64, language string) (bool, error) {
	objects, err := s.store.List(ctx, subjectPrefix(subjectID))
	if err != nil {
		return false, err
	}

	deleted := false
	for _, obj := range objects {
		if err := s.store.Remove(ctx, obj.Key); err != nil {
			return deleted, err
		}
		s.log.Info().Str("key", obj.Key).Str("language", language).Msg("deleted cached audio")
		deleted = true
	}
	return deleted, nil
}

// EvictOlderThan removes cache-namespaced objects whose last-modified
// timestamp exceeds the cutoff. Best effort: no guarantee against concurrent
// writers. Returns the count removed.
func (s *Service) EvictOlderThan(ctx context.Context, age time.Duration) (int, error) {
	objects, err := s.store.List(ctx, namespace)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, obj := range objects {
		if obj.LastModified.IsZero() || !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := s.store.Remove(ctx, obj.Key); err != nil {
			s.log.Warn().Err(err).Str("key", obj.Key).Msg("eviction failed, continuing")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("evicted stale cache entries")
	}
	return removed, nil
}
