package dedup

import (
	"context"
	"sync"

	"github.com/vk/rtlforge/internal/model"
)

// BuildFunc produces the artifact for one resolution key.
type BuildFunc func(ctx context.Context) (*model.Artifact, error)

// Cache collapses concurrent resolutions of the same key into one build.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done     chan struct{}
	artifact *model.Artifact
	err      error
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// Resolve returns the artifact for key, invoking build at most once per key
// over the cache's lifetime. The first caller runs build; concurrent and
// later callers block until it finishes and share its result, error
// included. shared reports whether the result came from another caller's
// build.
//
// The waiting side honors ctx so a canceled run does not hang on a slow
// build it no longer needs. The building side passes its own ctx through to
// build unchanged.
func (c *Cache) Resolve(ctx context.Context, key string, build BuildFunc) (artifact *model.Artifact, shared bool, err error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.artifact, true, e.err
		case <-ctx.Done():
			return nil, true, ctx.Err()
		}
	}

	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.artifact, e.err = build(ctx)
	close(e.done)
	return e.artifact, false, e.err
}

// Len reports how many distinct keys have been resolved or are in flight.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
