package cache

import (
	"context"
	"time"
)

// NullCache discards everything; every Get is a miss. Used when caching
// is disabled.
type NullCache struct{}

// NewNullCache returns the no-op cache.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
