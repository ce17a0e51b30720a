package knowledge

import (
	"container/list"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxEntries bounds the cache when no explicit limit is configured.
const DefaultMaxEntries = 256

// Cache is an in-memory, session-lifetime key to SongRecord store with LRU
// eviction. The source system grew its cache without bound; the cap here is a
// deliberate deviation. Writes are last-writer-wins; concurrent resolution of
// the same key is not deduplicated, the cost being a redundant backend call
// rather than a correctness problem.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	logger  *zap.Logger
}

type cacheEntry struct {
	key    string
	record *SongRecord
}

// NewCache creates a bounded cache. max <= 0 selects DefaultMaxEntries.
func NewCache(max int, logger *zap.Logger) *Cache {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		max:     max,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		logger:  logger,
	}
}

// Get returns the record stored under key, or nil. A hit refreshes recency.
func (c *Cache) Get(key string) *SongRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).record
}

// Put stores the record under key, evicting the least recently used entry
// when the cache is full.
func (c *Cache) Put(key string, record *SongRecord) {
	if key == "" || record == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).record = record
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, record: record})
	if c.order.Len() > c.max {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			evicted := oldest.Value.(*cacheEntry)
			delete(c.entries, evicted.key)
			c.logger.Debug("knowledge cache evicted entry", zap.String("key", evicted.key))
		}
	}
}

// Scan returns records matching pred, most recently used first, up to limit.
// limit <= 0 returns all matches.
func (c *Cache) Scan(pred func(*SongRecord) bool, limit int) []*SongRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*SongRecord
	for el := c.order.Front(); el != nil; el = el.Next() {
		rec := el.Value.(*cacheEntry).record
		if pred == nil || pred(rec) {
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
