package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned by normalization and validation.
var (
	// ErrUnsupportedFormat means the input container could not be decoded.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrInvalidAudio means decoded audio violates the canonical PCM contract.
	ErrInvalidAudio = errors.New("invalid audio")
)

// allowedRates are the sample rates the recognizer accepts.
var allowedRates = map[int]bool{
	8000:  true,
	16000: true,
	32000: true,
	44100: true,
	48000: true,
}

// PCM is canonical recognizer input: mono, 16-bit signed little-endian samples.
type PCM struct {
	SampleRate int
	Data       []byte
}

// Duration returns the audio length in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Data)/2) / float64(p.SampleRate)
}

// wavFormat is the parsed "fmt " chunk of a RIFF/WAVE file.
type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// ParseWAV decodes a RIFF/WAVE byte stream into its format and raw PCM
// payload. Only uncompressed PCM (format tag 1) is accepted.
func ParseWAV(data []byte) (wavFormat, []byte, error) {
	var f wavFormat

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return f, nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrUnsupportedFormat)
	}

	var pcm []byte
	sawFmt := false

	// Walk the chunk list. Chunks are word-aligned; a chunk with an odd size
	// is followed by one pad byte.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return f, nil, fmt.Errorf("%w: truncated %q chunk", ErrUnsupportedFormat, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return f, nil, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			f.AudioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			f.Channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			f.SampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			f.BitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			sawFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !sawFmt || pcm == nil {
		return f, nil, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedFormat)
	}
	if f.AudioFormat != 1 {
		return f, nil, fmt.Errorf("%w: compressed WAV (format tag %d)", ErrUnsupportedFormat, f.AudioFormat)
	}
	return f, pcm, nil
}

// validate asserts the canonical PCM contract before audio reaches the
// recognizer. Should never fire after a correct conversion.
func validate(f wavFormat) error {
	if f.Channels != 1 {
		return fmt.Errorf("%w: expected mono, got %d channels", ErrInvalidAudio, f.Channels)
	}
	if f.BitsPerSample != 16 {
		return fmt.Errorf("%w: expected 16-bit samples, got %d", ErrInvalidAudio, f.BitsPerSample)
	}
	if !allowedRates[int(f.SampleRate)] {
		return fmt.Errorf("%w: unsupported sample rate %d", ErrInvalidAudio, f.SampleRate)
	}
	return nil
}

// EncodeWAV wraps canonical PCM in a minimal RIFF/WAVE header.
func EncodeWAV(p PCM) []byte {
	const headerSize = 44
	out := make([]byte, headerSize+len(p.Data))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(p.Data)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], 1) // mono
	binary.LittleEndian.PutUint32(out[24:28], uint32(p.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(p.SampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(out[32:34], 2)                      // block align
	binary.LittleEndian.PutUint16(out[34:36], 16)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(p.Data)))
	copy(out[44:], p.Data)

	return out
}
