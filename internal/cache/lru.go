package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictFunc is called after an entry leaves the cache for any reason
// (capacity, expiry or explicit Delete). It runs without the cache lock held.
type EvictFunc[T any] func(key string, value T)

// LRUCache is a size-bounded cache whose entries also expire after a TTL.
// Each successful Get refreshes the entry's expiry.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	onEvict EvictFunc[T]
	now     func() time.Time
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRUCache creates a cache holding at most maxSize entries for ttl each.
func NewLRUCache[T any](maxSize int, ttl time.Duration, onEvict EvictFunc[T]) *LRUCache[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		onEvict: onEvict,
		now:     time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.now().After(e.expiresAt) {
		c.removeElement(elem)
		c.mu.Unlock()
		c.evicted(e)
		return zero, false
	}
	e.expiresAt = c.now().Add(c.ttl)
	c.lru.MoveToFront(elem)
	c.mu.Unlock()
	return e.data, true
}

// GetOrCreate returns the live entry for key, creating it with create when
// absent. create runs under the cache lock and must not call back into the cache.
func (c *LRUCache[T]) GetOrCreate(key string, create func() T) (value T, created bool) {
	c.mu.Lock()
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[T])
		if !c.now().After(e.expiresAt) {
			e.expiresAt = c.now().Add(c.ttl)
			c.lru.MoveToFront(elem)
			c.mu.Unlock()
			return e.data, false
		}
		c.removeElement(elem)
		defer c.evicted(e)
	}
	value = create()
	overflow := c.insert(key, value)
	c.mu.Unlock()
	c.evicted(overflow)
	return value, true
}

// Set stores data under key, replacing (and evicting) any previous value.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	var old *entry[T]
	if elem, ok := c.items[key]; ok {
		old = elem.Value.(*entry[T])
		c.removeElement(elem)
	}
	overflow := c.insert(key, data)
	c.mu.Unlock()
	c.evicted(old)
	c.evicted(overflow)
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	e := elem.Value.(*entry[T])
	c.removeElement(elem)
	c.mu.Unlock()
	c.evicted(e)
}

// CleanExpired removes all expired entries and returns how many were removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	now := c.now()
	var gone []*entry[T]
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		e := elem.Value.(*entry[T])
		if now.After(e.expiresAt) {
			c.removeElement(elem)
			gone = append(gone, e)
		}
		elem = next
	}
	c.mu.Unlock()
	for _, e := range gone {
		c.evicted(e)
	}
	return len(gone)
}

// Purge evicts every entry.
func (c *LRUCache[T]) Purge() {
	c.mu.Lock()
	var gone []*entry[T]
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		gone = append(gone, elem.Value.(*entry[T]))
	}
	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.mu.Unlock()
	for _, e := range gone {
		c.evicted(e)
	}
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// insert adds a fresh entry and returns the entry pushed out by the size bound, if any.
func (c *LRUCache[T]) insert(key string, data T) *entry[T] {
	elem := c.lru.PushFront(&entry[T]{key: key, data: data, expiresAt: c.now().Add(c.ttl)})
	c.items[key] = elem
	if c.lru.Len() <= c.maxSize {
		return nil
	}
	oldest := c.lru.Back()
	e := oldest.Value.(*entry[T])
	c.removeElement(oldest)
	return e
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[T])
	delete(c.items, e.key)
	c.lru.Remove(elem)
}

func (c *LRUCache[T]) evicted(e *entry[T]) {
	if e != nil && c.onEvict != nil {
		c.onEvict(e.key, e.data)
	}
}
