package recognize

import (
	"fmt"
	"os"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/rs/zerolog"
)

// voskFactory holds the loaded Vosk model. The model is immutable after load
// and shared read-only across concurrent decoders.
type voskFactory struct {
	model *vosk.VoskModel
}

func newVoskFactory(modelPath string, log zerolog.Logger) (*voskFactory, error) {
	if _, err := os.Stat(modelPath); err != nil {
		log.Error().Str("model", modelPath).Msg("model directory not found; download one from https://alphacephei.com/vosk/models")
		return nil, fmt.Errorf("%w: model not found at %s", ErrModelNotLoaded, modelPath)
	}

	vosk.SetLogLevel(-1)
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}
	return &voskFactory{model: model}, nil
}

// NewDecoder binds a fresh recognizer to the model for one call, with
// word-level output enabled.
func (f *voskFactory) NewDecoder(sampleRate int) (Decoder, error) {
	rec, err := vosk.NewRecognizer(f.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("recognizer for rate %d: %w", sampleRate, err)
	}
	rec.SetWords(1)
	return &voskDecoder{rec: rec}, nil
}

func (f *voskFactory) Close() {
	if f.model != nil {
		f.model.Free()
		f.model = nil
	}
}

type voskDecoder struct {
	rec *vosk.VoskRecognizer
}

func (d *voskDecoder) AcceptWaveform(chunk []byte) (bool, error) {
	return d.rec.AcceptWaveform(chunk) != 0, nil
}

func (d *voskDecoder) Result() string      { return d.rec.Result() }
func (d *voskDecoder) FinalResult() string { return d.rec.FinalResult() }

func (d *voskDecoder) Close() {
	if d.rec != nil {
		d.rec.Free()
		d.rec = nil
	}
}
