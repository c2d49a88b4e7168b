package statusicon

import (
	"sync"

	"github.com/rs/zerolog"
)

type cacheKey struct {
	path string
	size int
}

// Cache memoizes rasterization results keyed by (path, size). It is a
// pure memoization cache: entries live until [Cache.Clear] and there is
// no per-entry eviction.
//
// A Cache is safe for concurrent use and is meant to be shared across
// items, so animation frames used by several icons are rendered once.
// Two concurrent misses on the same key may both rasterize; the output
// for a key is deterministic, so last write wins harmlessly.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Icon
	render  func(path string, size int) (*Icon, error)
	log     zerolog.Logger
}

// NewCache returns an empty [Cache] backed by [Rasterize]. Skipped
// pre-warm failures are reported through logger; pass [zerolog.Nop] to
// discard them.
func NewCache(logger zerolog.Logger) *Cache {
	return &Cache{
		entries: make(map[cacheKey]*Icon),
		render:  Rasterize,
		log:     logger,
	}
}

// GetOrRender returns the memoized [Icon] for (path, size), rendering
// and storing it on first request. Rasterization errors propagate
// unchanged and are never cached.
func (c *Cache) GetOrRender(path string, size int) (*Icon, error) {
	c.mu.Lock()
	key := cacheKey{path, size}

	if icon, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return icon, nil
	}
	c.mu.Unlock()

	// Render outside the lock: rasterization is slow and concurrent
	// misses on distinct keys should not serialize.
	icon, err := c.render(path, size)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = icon
	c.mu.Unlock()

	return icon, nil
}

// PreWarm renders and caches every path not already cached at size.
// Paths that fail to rasterize are logged and skipped; PreWarm never
// fails because of a single bad entry.
func (c *Cache) PreWarm(paths []string, size int) {
	for _, path := range paths {
		if _, err := c.GetOrRender(path, size); err != nil {
			c.log.Warn().Err(err).Str("path", path).Int("size", size).
				Msg("skipping icon that failed to pre-warm")
		}
	}
}

// Clear removes all entries. Subsequent calls to [Cache.GetOrRender]
// re-render; animations keep their frame indices and simply re-render
// frames on demand.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]*Icon)
}

// Len reports the number of cached renderings.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
