// Package audio turns arbitrary uploaded audio into canonical PCM for the
// recognizer: mono, 16-bit, at a fixed sample rate.
package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// ffmpegAvailable caches whether ffmpeg is in PATH (checked once at startup).
var ffmpegAvailable *bool

// CheckFFmpeg checks if ffmpeg is available in PATH. Call once at startup.
func CheckFFmpeg() bool {
	if ffmpegAvailable != nil {
		return *ffmpegAvailable
	}
	_, err := exec.LookPath("ffmpeg")
	avail := err == nil
	ffmpegAvailable = &avail
	return avail
}

// Normalize decodes any supported container (wav, mp3, ogg, m4a, webm, flac)
// into canonical PCM at targetRate.
//
// Already-canonical WAV input is passed through byte-identically: a mono
// 16-bit file at an accepted sample rate keeps its payload and rate and never
// touches ffmpeg. Everything else is staged to a scratch file and converted.
//
// hint is an optional filename extension ("webm", ".m4a") used to name the
// scratch file so the decoder can identify containers with weak magic bytes.
func Normalize(ctx context.Context, data []byte, hint string, targetRate int) (PCM, error) {
	if f, pcm, err := ParseWAV(data); err == nil {
		if f.Channels == 1 && f.BitsPerSample == 16 && allowedRates[int(f.SampleRate)] {
			return PCM{SampleRate: int(f.SampleRate), Data: pcm}, nil
		}
	}

	if !CheckFFmpeg() {
		return PCM{}, fmt.Errorf("%w: ffmpeg not available for conversion", ErrUnsupportedFormat)
	}

	in, err := NewScratch("speech-in-*"+normalizeHint(hint), data)
	if err != nil {
		return PCM{}, fmt.Errorf("stage input: %w", err)
	}
	defer in.Release()

	out, err := NewScratch("speech-out-*.wav", nil)
	if err != nil {
		return PCM{}, fmt.Errorf("stage output: %w", err)
	}
	defer out.Release()

	// ffmpeg -y -i in -ac 1 -ar rate -sample_fmt s16 -f wav out
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", in.Path(),
		"-ac", "1",
		"-ar", strconv.Itoa(targetRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		out.Path(),
	)
	if err := cmd.Run(); err != nil {
		return PCM{}, fmt.Errorf("%w: ffmpeg: %v", ErrUnsupportedFormat, err)
	}

	converted, err := os.ReadFile(out.Path())
	if err != nil {
		return PCM{}, fmt.Errorf("read converted audio: %w", err)
	}

	f, pcm, err := ParseWAV(converted)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: conversion produced unreadable output", ErrInvalidAudio)
	}
	if err := validate(f); err != nil {
		return PCM{}, err
	}

	return PCM{SampleRate: int(f.SampleRate), Data: pcm}, nil
}

func normalizeHint(hint string) string {
	if hint == "" {
		return ""
	}
	if hint[0] != '.' {
		return "." + hint
	}
	return hint
}
