// Package cache provides the render-artifact cache used by the export
// pipeline. Rendering a large diagram to SVG or PNG is the expensive step,
// so artifacts are keyed by a content hash of the layout plus the render
// options and reused until the layout changes.
//
// Three backends ship: [FileCache] for CLI usage, [RedisCache] for the
// server, and [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with optional per-entry expiry.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts captures the render parameters that affect artifact
// content. Any change to an option produces a different key.
type ArtifactKeyOpts struct {
	Format    string
	ShowPorts bool
	ShowGrid  bool
	Padding   float64
	Scale     float64
}

// ArtifactKey derives the cache key for a rendered artifact from the
// layout's content hash and the render parameters.
func ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// CheckKey derives the cache key for stored check results from the
// layout's content hash.
func CheckKey(layoutHash string) string {
	return hashKey("check", layoutHash)
}

// Default time-to-live values per entry kind.
const (
	// TTLArtifact applies to rendered artifacts. Keys embed the layout
	// hash, so stale entries are never served; the TTL only bounds disk
	// and memory growth.
	TTLArtifact = 7 * 24 * time.Hour

	// TTLCheck applies to stored validation and simulation results.
	TTLCheck = 24 * time.Hour
)
