package geocode

import (
	"context"
	"sync"
)

// CachedResolver memoises successful resolutions by query text. Repeated
// observations of the same listing within a run then always land on the
// same coordinates, which keeps the storage identity key stable. Safe for
// concurrent use.
type CachedResolver struct {
	inner Resolver

	mu    sync.RWMutex
	known map[string]Coordinates
}

// NewCached wraps a resolver with an in-memory cache.
func NewCached(inner Resolver) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		known: make(map[string]Coordinates),
	}
}

// Resolve returns the cached coordinates when present, otherwise consults
// the wrapped resolver. Failures are not cached.
func (c *CachedResolver) Resolve(ctx context.Context, q Query) (Coordinates, error) {
	key := q.FreeText()

	c.mu.RLock()
	coords, ok := c.known[key]
	c.mu.RUnlock()
	if ok {
		return coords, nil
	}

	coords, err := c.inner.Resolve(ctx, q)
	if err != nil {
		return Coordinates{}, err
	}

	c.mu.Lock()
	c.known[key] = coords
	c.mu.Unlock()
	return coords, nil
}
