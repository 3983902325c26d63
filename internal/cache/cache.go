package cache

import (
	"sync"

	"github.com/google/uuid"

	"github.com/skillforge/timeline/pkg/core"
)

// Locator records where a clip lives in the document tree.
type Locator struct {
	TrackType  core.TrackType
	TrackIndex int
}

// ClipCache caches clip locations by ID to avoid walking the whole document
// tree on every lookup. Latency here matters: lookups run on every pointer
// move during a drag.
type ClipCache struct {
	m        sync.Mutex
	locators map[uuid.UUID]Locator
}

func NewClipCache() *ClipCache {
	return &ClipCache{
		locators: make(map[uuid.UUID]Locator),
	}
}

func (c *ClipCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.locators = make(map[uuid.UUID]Locator)
}

func (c *ClipCache) Get(id uuid.UUID) (Locator, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	loc, ok := c.locators[id]
	return loc, ok
}

func (c *ClipCache) Put(id uuid.UUID, loc Locator) {
	c.m.Lock()
	defer c.m.Unlock()
	c.locators[id] = loc
}

func (c *ClipCache) Delete(id uuid.UUID) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.locators, id)
}

func (c *ClipCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.locators)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
