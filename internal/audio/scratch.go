package audio

import "os"

// Scratch is a temporary on-disk artifact scoped to one request. Callers must
// Release on every exit path; removal failures are best-effort and ignored.
type Scratch struct {
	path string
}

// NewScratch writes data to a fresh temp file. pattern follows os.CreateTemp
// conventions (a "*" is replaced; a trailing suffix like ".webm" is kept so
// external decoders can sniff the container).
func NewScratch(pattern string, data []byte) (*Scratch, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}
	return &Scratch{path: f.Name()}, nil
}

// Path returns the on-disk location.
func (s *Scratch) Path() string { return s.path }

// Release removes the artifact. Safe to call more than once.
func (s *Scratch) Release() {
	if s.path != "" {
		os.Remove(s.path)
		s.path = ""
	}
}
