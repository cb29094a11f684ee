package synth

import (
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vocably/speech-engine/internal/audio"
)

// ffprobeAvailable caches whether ffprobe is in PATH (checked once).
var ffprobeAvailable *bool

// CheckFFprobe checks if ffprobe is available in PATH.
func CheckFFprobe() bool {
	if ffprobeAvailable != nil {
		return *ffprobeAvailable
	}
	_, err := exec.LookPath("ffprobe")
	avail := err == nil
	ffprobeAvailable = &avail
	return avail
}

// probeDuration measures rendered audio length in seconds, rounded to two
// decimals. Best effort: any failure returns nil and the duration is simply
// reported as absent.
func probeDuration(data []byte) *float64 {
	if !CheckFFprobe() {
		return nil
	}

	scratch, err := audio.NewScratch("speech-probe-*.mp3", data)
	if err != nil {
		return nil
	}
	defer scratch.Release()

	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		scratch.Path(),
	).Output()
	if err != nil {
		return nil
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return nil
	}
	d = math.Round(d*100) / 100
	return &d
}
