// Package storage provides the object-store backend for synthesized audio
// and saved recordings.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrStorage wraps object-store failures surfaced to callers.
var ErrStorage = errors.New("object storage error")

// Object describes one stored entry, as returned by List.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore abstracts the S3-compatible backend. The store is the sole
// source of truth for cache membership: existence of a key means a valid
// cached artifact for the inputs that derived it.
type ObjectStore interface {
	// Exists probes a key. Probe failures read as absent; callers that need
	// the distinction should treat a miss as "regenerate".
	Exists(ctx context.Context, key string) bool

	// Save uploads data under key with an explicit content type.
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// List returns every object under the key prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Remove deletes one object.
	Remove(ctx context.Context, key string) error

	// PublicURL returns the stable address of a stored object.
	PublicURL(key string) string
}
