// Package cache memoizes ranked mapping results per concept.
//
// ResultCache is a sharded LRU: each shard owns its own lock, map and
// recency list, and a key's shard is picked by hashing it, so lookups of
// unrelated concepts rarely contend. Values are deep-copied on the way in
// and out; callers can never mutate a cached entry.
package cache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/conceptmap/internal/types"
)

// Defaults used when New is given non-positive sizes
const (
	DefaultCapacity = 10000
	DefaultShards   = 16
)

// Key identifies a cache entry: normalized concept text plus category hint
type Key struct {
	Text string
	Hint string
}

func (k Key) hash() uint64 {
	return xxhash.Sum64String(k.Text + "\x00" + k.Hint)
}

// Observer receives cache events, typically to feed metrics
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
}

type nopObserver struct{}

func (nopObserver) CacheHit()      {}
func (nopObserver) CacheMiss()     {}
func (nopObserver) CacheEviction() {}

type entry struct {
	key     Key
	results []types.MappingResult
}

type shard struct {
	mu       sync.Mutex
	capacity int
	items    map[Key]*list.Element
	order    *list.List
}

// ResultCache is a bounded, thread-safe LRU of concept -> ranked results
type ResultCache struct {
	shards   []*shard
	capacity int
	observer Observer
	counters counters
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithObserver sets the event observer
func WithObserver(o Observer) Option {
	return func(c *ResultCache) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a cache holding at most capacity entries across shards
// shards. Each shard holds an equal share, rounded up.
func New(capacity, shards int, opts ...Option) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if shards <= 0 {
		shards = DefaultShards
	}
	if shards > capacity {
		shards = capacity
	}
	perShard := (capacity + shards - 1) / shards

	c := &ResultCache{
		shards:   make([]*shard, shards),
		capacity: perShard * shards,
		observer: nopObserver{},
	}
	for i := range c.shards {
		c.shards[i] = &shard{
			capacity: perShard,
			items:    make(map[Key]*list.Element),
			order:    list.New(),
		}
	}
	c.counters.reset()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ResultCache) shardFor(key Key) *shard {
	return c.shards[key.hash()%uint64(len(c.shards))]
}

// Get returns a copy of the cached results and marks the entry recently used
func (c *ResultCache) Get(key Key) ([]types.MappingResult, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	elem, ok := s.items[key]
	if !ok {
		s.mu.Unlock()
		c.counters.misses.Add(1)
		c.observer.CacheMiss()
		return nil, false
	}
	s.order.MoveToFront(elem)
	out := types.CloneResults(elem.Value.(*entry).results)
	s.mu.Unlock()

	c.counters.hits.Add(1)
	c.observer.CacheHit()
	return out, true
}

// Put stores a copy of results, evicting the shard's least recently used
// entry when it is full
func (c *ResultCache) Put(key Key, results []types.MappingResult) {
	stored := types.CloneResults(results)

	s := c.shardFor(key)
	s.mu.Lock()
	if elem, ok := s.items[key]; ok {
		s.order.MoveToFront(elem)
		elem.Value.(*entry).results = stored
		s.mu.Unlock()
		return
	}

	s.items[key] = s.order.PushFront(&entry{key: key, results: stored})
	evicted := false
	if s.order.Len() > s.capacity {
		if oldest := s.order.Back(); oldest != nil {
			s.order.Remove(oldest)
			delete(s.items, oldest.Value.(*entry).key)
			evicted = true
		}
	}
	s.mu.Unlock()

	if evicted {
		c.counters.evictions.Add(1)
		c.observer.CacheEviction()
	}
}

// Len returns the number of cached entries
func (c *ResultCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.order.Len()
		s.mu.Unlock()
	}
	return n
}

// Capacity returns the total entry limit
func (c *ResultCache) Capacity() int {
	return c.capacity
}

// Clear removes all entries and resets Stats counters
func (c *ResultCache) Clear() {
	defer c.counters.reset()
	for _, s := range c.shards {
		s.mu.Lock()
		s.items = make(map[Key]*list.Element)
		s.order = list.New()
		s.mu.Unlock()
	}
}
