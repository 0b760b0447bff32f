// Package cache provides the computed-layout cache: a plain key → bytes
// store consulted before, and populated after, a pipeline run. Cached
// entries hold serialized branch assignment and column layout keyed by the
// repository's refs, the branching model, and the options that influence
// assignment; commit text is never cached, it is always re-read from the
// repository.
package cache

import (
	"context"
	"time"
)

// TTL for cached layouts. Entries are keyed by a content hash of refs and
// model, so they can never serve stale data; the TTL only bounds disk growth
// from layouts whose inputs no longer occur.
const TTLLayout = 30 * 24 * time.Hour

// Cache is a generic byte cache with TTL-based expiration.
type Cache interface {
	// Get retrieves data for a key. Returns (data, true, nil) on a hit,
	// (nil, false, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under a key with a TTL. ttl <= 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// LayoutKeyOpts are the options that change the outcome of branch
// assignment and column packing, and therefore must be part of the cache
// key. Render-only options (style, format, colors) are deliberately absent:
// a cached layout is re-rendered cheaply in any style.
type LayoutKeyOpts struct {
	MaxCount      int  `json:"max_count"`
	IncludeRemote bool `json:"include_remote"`
}

// Keyer builds cache keys. The interface exists so a wrapper can namespace
// keys (see ScopedKeyer) without the pipeline knowing.
type Keyer interface {
	// LayoutKey keys a computed layout by the hash of its inputs (the
	// repository's refs and the model content) plus the assignment options.
	LayoutKey(inputsHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a short prefix naming the entry
// kind, then a SHA-256 over the JSON-encoded components.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (k *DefaultKeyer) LayoutKey(inputsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputsHash, opts)
}
