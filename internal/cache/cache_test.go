package cache

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/skillforge/timeline/pkg/core"
)

func TestClipCache(t *testing.T) {
	c := NewClipCache()
	id := uuid.New()

	if _, ok := c.Get(id); ok {
		t.Error("expected miss on empty cache")
	}

	c.Put(id, Locator{TrackType: core.TrackAudio, TrackIndex: 2})
	loc, ok := c.Get(id)
	if !ok {
		t.Fatal("expected hit")
	}
	if loc.TrackType != core.TrackAudio || loc.TrackIndex != 2 {
		t.Errorf("unexpected locator: %+v", loc)
	}
	if c.Len() != 1 {
		t.Errorf("expected length 1, got %d", c.Len())
	}

	c.Delete(id)
	if _, ok := c.Get(id); ok {
		t.Error("expected miss after delete")
	}
}

func TestClipCacheReset(t *testing.T) {
	c := NewClipCache()
	c.Put(uuid.New(), Locator{TrackType: core.TrackEffect})
	c.Put(uuid.New(), Locator{TrackType: core.TrackEvent, TrackIndex: 1})

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after reset, got %d", c.Len())
	}
}

func TestClipCacheConcurrent(t *testing.T) {
	c := NewClipCache()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := uuid.New()
			c.Put(id, Locator{TrackType: core.TrackAudio, TrackIndex: n})
			c.Get(id)
		}(i)
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Errorf("expected 50 entries, got %d", c.Len())
	}
}

func TestSafeCounter(t *testing.T) {
	var c SafeCounter
	if c.Value() != 0 {
		t.Errorf("expected 0, got %d", c.Value())
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	if c.Value() != 100 {
		t.Errorf("expected 100, got %d", c.Value())
	}

	c.Set(7)
	if c.Value() != 7 {
		t.Errorf("expected 7, got %d", c.Value())
	}
}
