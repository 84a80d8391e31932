package impact

import (
	"container/list"
	"sync"
)

// diffCache is a thread-safe, fixed-capacity LRU cache of diff results,
// the same container/list-backed shape as the teacher's schema.LRUCache,
// keyed by the fingerprint cacheKey builds instead of a schema.Key.
type diffCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type diffCacheEntry struct {
	key    string
	result diffResult
}

func newDiffCache(capacity int) diffCache {
	return diffCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *diffCache) get(key string) (diffResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return diffResult{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*diffCacheEntry).result, true
}

func (c *diffCache) put(key string, result diffResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*diffCacheEntry).result = result
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.entries, oldest.Value.(*diffCacheEntry).key)
			c.order.Remove(oldest)
		}
	}

	elem := c.order.PushFront(&diffCacheEntry{key: key, result: result})
	c.entries[key] = elem
}
