// internal/cache/lru.go
//
// Small LRU cache shared by the view engine (parsed template sets) and the
// session store (mounted form controllers).  Entries may expire after an
// idle TTL; OnEvict fires for both capacity and idle evictions so callers can
// update metrics.  No external deps; good for a few thousand entries.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a concurrency-safe least-recently-used cache.
type LRU[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration // 0 disables idle expiry
	ll   *list.List
	dict map[K]*list.Element
	now  func() time.Time

	// OnEvict, when set, is called without the lock held.
	OnEvict func(key K, val V)
}

type pair[K comparable, V any] struct {
	key  K
	val  V
	seen time.Time
}

// New returns an LRU with the given capacity and idle TTL.  Panics on cap < 1.
func New[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ttl:  ttl,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get retrieves a value and marks it MRU.  Expired entries are dropped.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	c.mu.Lock()
	ele, hit := c.dict[key]
	if !hit {
		c.mu.Unlock()
		return val, false
	}
	p := ele.Value.(*pair[K, V])
	if c.expired(p) {
		c.removeElement(ele)
		c.mu.Unlock()
		c.evicted(p)
		return val, false
	}
	p.seen = c.now()
	c.ll.MoveToFront(ele)
	c.mu.Unlock()
	return p.val, true
}

// Add inserts or replaces a value.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	if ele, hit := c.dict[key]; hit {
		p := ele.Value.(*pair[K, V])
		p.val, p.seen = val, c.now()
		c.ll.MoveToFront(ele)
		c.mu.Unlock()
		return
	}
	c.dict[key] = c.ll.PushFront(&pair[K, V]{key: key, val: val, seen: c.now()})

	var dropped []*pair[K, V]
	for c.ll.Len() > c.cap {
		last := c.ll.Back()
		dropped = append(dropped, last.Value.(*pair[K, V]))
		c.removeElement(last)
	}
	c.mu.Unlock()

	for _, p := range dropped {
		c.evicted(p)
	}
}

// Remove deletes key without calling OnEvict.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.removeElement(ele)
	}
}

// Prune drops every expired entry and returns how many were removed.
func (c *LRU[K, V]) Prune() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	var dropped []*pair[K, V]
	for ele := c.ll.Back(); ele != nil; {
		prev := ele.Prev()
		p := ele.Value.(*pair[K, V])
		if !c.expired(p) {
			break // list is ordered by recency
		}
		dropped = append(dropped, p)
		c.removeElement(ele)
		ele = prev
	}
	c.mu.Unlock()

	for _, p := range dropped {
		c.evicted(p)
	}
	return len(dropped)
}

// Len reports current size.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRU[K, V]) expired(p *pair[K, V]) bool {
	return c.ttl > 0 && c.now().Sub(p.seen) > c.ttl
}

func (c *LRU[K, V]) removeElement(ele *list.Element) {
	c.ll.Remove(ele)
	delete(c.dict, ele.Value.(*pair[K, V]).key)
}

func (c *LRU[K, V]) evicted(p *pair[K, V]) {
	if c.OnEvict != nil {
		c.OnEvict(p.key, p.val)
	}
}
