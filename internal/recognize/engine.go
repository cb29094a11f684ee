// Package recognize drives a streaming speech recognizer over canonical PCM
// and aggregates per-word confidence into a single transcript.
package recognize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/audio"
)

var (
	// ErrModelNotLoaded means the acoustic model was never loaded. Fatal at
	// process start, not recoverable per request.
	ErrModelNotLoaded = errors.New("recognition model not loaded")
	// ErrDecode wraps a lower-level decoder fault. Surfaced to the caller as
	// a request failure, never retried.
	ErrDecode = errors.New("decode failed")
)

// chunkSize is the per-feed payload in bytes: 4000 16-bit frames. A tuning
// constant, not correctness-relevant.
const chunkSize = 8000

// Word is one recognized word with its confidence and utterance timing.
type Word struct {
	Text       string  `json:"word"`
	Confidence float64 `json:"conf"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

// Result is a finalized transcript. Immutable once returned.
type Result struct {
	Text       string
	Confidence float64
	Words      []Word
}

// Decoder is one streaming decode pass. Implementations hold per-call mutable
// state and must not be shared across goroutines; the model behind them is
// read-only and shared.
type Decoder interface {
	// AcceptWaveform feeds one PCM chunk. A true return means a segment
	// completed and Result holds it.
	AcceptWaveform(chunk []byte) (bool, error)
	// Result returns the JSON payload of the last completed segment.
	Result() string
	// FinalResult flushes any pending partial decode and returns its JSON.
	FinalResult() string
	// Close frees decoder state.
	Close()
}

// DecoderFactory binds fresh decoders to a loaded model.
type DecoderFactory interface {
	NewDecoder(sampleRate int) (Decoder, error)
	Close()
}

// Engine exposes streaming recognition over an immutable, process-wide model.
// Safe for concurrent use; each call gets its own decoder.
type Engine struct {
	factory DecoderFactory
	log     zerolog.Logger
}

// NewEngine loads the model at modelPath. Errors here abort startup.
func NewEngine(modelPath string, log zerolog.Logger) (*Engine, error) {
	f, err := newVoskFactory(modelPath, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("model", modelPath).Msg("recognition model loaded")
	return &Engine{factory: f, log: log}, nil
}

// newEngineWithFactory wires an alternate decoder factory. Used by tests.
func newEngineWithFactory(f DecoderFactory, log zerolog.Logger) *Engine {
	return &Engine{factory: f, log: log}
}

// Close frees the model.
func (e *Engine) Close() {
	if e.factory != nil {
		e.factory.Close()
	}
}

// Ready reports whether the model is loaded.
func (e *Engine) Ready() bool {
	return e != nil && e.factory != nil
}

// segment is the decoder's JSON payload for one completed utterance segment.
type segment struct {
	Text  string `json:"text"`
	Words []Word `json:"result"`
}

// Recognize streams pcm through a fresh decoder and finalizes one transcript.
// Segments with empty text are discarded. A transcript with no words carries
// confidence 0.0; that is a degraded result, not an error.
func (e *Engine) Recognize(ctx context.Context, pcm audio.PCM) (Result, error) {
	if !e.Ready() {
		return Result{}, ErrModelNotLoaded
	}

	dec, err := e.factory.NewDecoder(pcm.SampleRate)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer dec.Close()

	var segs []segment
	for off := 0; off < len(pcm.Data); off += chunkSize {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		end := off + chunkSize
		if end > len(pcm.Data) {
			end = len(pcm.Data)
		}
		done, err := dec.AcceptWaveform(pcm.Data[off:end])
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if done {
			if err := appendSegment(&segs, dec.Result()); err != nil {
				return Result{}, err
			}
		}
	}

	if err := appendSegment(&segs, dec.FinalResult()); err != nil {
		return Result{}, err
	}

	res := finalize(segs)
	e.log.Debug().
		Str("text", res.Text).
		Float64("confidence", res.Confidence).
		Int("words", len(res.Words)).
		Msg("recognition finalized")
	return res, nil
}

func appendSegment(segs *[]segment, payload string) error {
	var s segment
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return fmt.Errorf("%w: malformed segment: %v", ErrDecode, err)
	}
	if strings.TrimSpace(s.Text) == "" {
		return nil
	}
	*segs = append(*segs, s)
	return nil
}

// finalize joins segments in emission order and folds word confidences into
// their arithmetic mean.
func finalize(segs []segment) Result {
	var (
		texts []string
		words []Word
	)
	for _, s := range segs {
		texts = append(texts, s.Text)
		words = append(words, s.Words...)
	}

	return Result{
		Text:       strings.TrimSpace(strings.Join(texts, " ")),
		Confidence: meanConfidence(words),
		Words:      words,
	}
}

// meanConfidence is 0.0 for an empty word list; never divides by zero.
func meanConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0.0
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}
