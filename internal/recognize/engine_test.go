package recognize

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/audio"
)

// fakeDecoder replays scripted segments: every Nth chunk completes the next
// one, and FinalResult flushes whatever is configured as the final segment.
type fakeDecoder struct {
	segments  []string // emitted one per completed chunk
	final     string
	acceptErr error

	fed    int
	closed bool
}

func (d *fakeDecoder) AcceptWaveform(chunk []byte) (bool, error) {
	if d.acceptErr != nil {
		return false, d.acceptErr
	}
	if d.fed < len(d.segments) {
		d.fed++
		return true, nil
	}
	return false, nil
}

func (d *fakeDecoder) Result() string      { return d.segments[d.fed-1] }
func (d *fakeDecoder) FinalResult() string { return d.final }
func (d *fakeDecoder) Close()              { d.closed = true }

type fakeFactory struct {
	dec     *fakeDecoder
	lastRate int
}

func (f *fakeFactory) NewDecoder(rate int) (Decoder, error) {
	f.lastRate = rate
	return f.dec, nil
}
func (f *fakeFactory) Close() {}

func testPCM(chunks int) audio.PCM {
	return audio.PCM{SampleRate: 16000, Data: make([]byte, chunks*chunkSize)}
}

func seg(text string, confs ...float64) string {
	out := fmt.Sprintf(`{"text":%q,"result":[`, text)
	for i, c := range confs {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{"word":"w%d","conf":%v,"start":%d.0,"end":%d.5}`, i, c, i, i)
	}
	return out + "]}"
}

func TestRecognize_JoinsSegmentsAndAveragesConfidence(t *testing.T) {
	dec := &fakeDecoder{
		segments: []string{seg("hello", 0.9, 0.7)},
		final:    seg("world", 0.8),
	}
	eng := newEngineWithFactory(&fakeFactory{dec: dec}, zerolog.Nop())

	res, err := eng.Recognize(context.Background(), testPCM(3))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "hello world" {
		t.Errorf("Text = %q, want %q", res.Text, "hello world")
	}
	if len(res.Words) != 3 {
		t.Fatalf("len(Words) = %d, want 3", len(res.Words))
	}
	if want := 0.8; math.Abs(res.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", res.Confidence, want)
	}
	if !dec.closed {
		t.Error("decoder not closed after recognition")
	}
}

func TestRecognize_DiscardsEmptySegments(t *testing.T) {
	dec := &fakeDecoder{
		segments: []string{seg("", 0.0), seg("cat", 1.0)},
		final:    `{"text":""}`,
	}
	eng := newEngineWithFactory(&fakeFactory{dec: dec}, zerolog.Nop())

	res, err := eng.Recognize(context.Background(), testPCM(4))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "cat" {
		t.Errorf("Text = %q, want %q", res.Text, "cat")
	}
	if len(res.Words) != 1 {
		t.Errorf("len(Words) = %d, want 1", len(res.Words))
	}
}

func TestRecognize_NoWordsIsDegradedNotError(t *testing.T) {
	dec := &fakeDecoder{final: `{"text":""}`}
	eng := newEngineWithFactory(&fakeFactory{dec: dec}, zerolog.Nop())

	res, err := eng.Recognize(context.Background(), testPCM(2))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
	if res.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0", res.Confidence)
	}
}

func TestRecognize_SegmentWithoutWordList(t *testing.T) {
	// Some models omit "result" when word output has nothing to attach.
	dec := &fakeDecoder{final: `{"text":"hey"}`}
	eng := newEngineWithFactory(&fakeFactory{dec: dec}, zerolog.Nop())

	res, err := eng.Recognize(context.Background(), testPCM(1))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if res.Text != "hey" {
		t.Errorf("Text = %q, want hey", res.Text)
	}
	if res.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0 with no word entries", res.Confidence)
	}
}

func TestRecognize_DecoderFaultWrapsErrDecode(t *testing.T) {
	dec := &fakeDecoder{acceptErr: errors.New("boom")}
	eng := newEngineWithFactory(&fakeFactory{dec: dec}, zerolog.Nop())

	_, err := eng.Recognize(context.Background(), testPCM(1))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestRecognize_MalformedSegmentJSON(t *testing.T) {
	dec := &fakeDecoder{final: `{not json`}
	eng := newEngineWithFactory(&fakeFactory{dec: dec}, zerolog.Nop())

	_, err := eng.Recognize(context.Background(), testPCM(1))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestRecognize_NilEngineReportsModelNotLoaded(t *testing.T) {
	var eng *Engine
	_, err := eng.Recognize(context.Background(), testPCM(1))
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Errorf("err = %v, want ErrModelNotLoaded", err)
	}
}

func TestRecognize_DecoderBoundToStreamRate(t *testing.T) {
	f := &fakeFactory{dec: &fakeDecoder{final: `{"text":""}`}}
	eng := newEngineWithFactory(f, zerolog.Nop())

	pcm := audio.PCM{SampleRate: 44100, Data: make([]byte, 100)}
	if _, err := eng.Recognize(context.Background(), pcm); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if f.lastRate != 44100 {
		t.Errorf("decoder rate = %d, want 44100", f.lastRate)
	}
}

func TestMeanConfidence(t *testing.T) {
	if got := meanConfidence(nil); got != 0.0 {
		t.Errorf("meanConfidence(nil) = %v, want 0.0", got)
	}
	words := []Word{{Confidence: 1.0}, {Confidence: 0.5}, {Confidence: 0.0}}
	if got := meanConfidence(words); got != 0.5 {
		t.Errorf("meanConfidence = %v, want 0.5", got)
	}
}
