package almanac

import (
	"context"
	"fmt"
	"sync"
)

// Renderer computes the reading metadata of an entry.
type Renderer interface {
	Render(ctx context.Context, e Entry) (ReadingMeta, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, e Entry) (ReadingMeta, error)

// Render calls f(ctx, e).
func (f RendererFunc) Render(ctx context.Context, e Entry) (ReadingMeta, error) {
	return f(ctx, e)
}

type metaKey struct {
	collection Collection
	id         string
	lang       string
}

func newMetaKey(e Entry) metaKey {
	lang := e.Lang
	if lang == "" {
		lang = "universal"
	}
	return metaKey{collection: e.Collection, id: e.ID, lang: lang}
}

// MetaCache holds rendered metadata per (collection, entry ID, language).
// Entries are never evicted.
type MetaCache struct {
	mu   sync.RWMutex
	meta map[metaKey]ReadingMeta
}

// NewMetaCache returns an empty MetaCache.
func NewMetaCache() *MetaCache {
	return &MetaCache{meta: make(map[metaKey]ReadingMeta)}
}

func (c *MetaCache) get(k metaKey) (ReadingMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.meta[k]
	return m, ok
}

func (c *MetaCache) set(k metaKey, m ReadingMeta) ReadingMeta {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.meta[k]; ok {
		return existing
	}
	c.meta[k] = m
	return m
}

// Len returns the number of cached entries.
func (c *MetaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.meta)
}

func (c *MetaCache) reset() {
	c.mu.Lock()
	c.meta = make(map[metaKey]ReadingMeta)
	c.mu.Unlock()
}

// enrich attaches reading metadata to e, rendering it on a cache miss.
func (l *Library) enrich(ctx context.Context, e Entry) (Item, error) {
	k := newMetaKey(e)
	if m, ok := l.meta.get(k); ok {
		return Item{Entry: e, Meta: m}, nil
	}
	m, err := l.renderer.Render(ctx, e)
	if err != nil {
		return Item{}, fmt.Errorf("render %s/%s: %w", e.Collection, e.ID, err)
	}
	return Item{Entry: e, Meta: l.meta.set(k, m)}, nil
}
