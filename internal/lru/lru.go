// Package lru is a fixed-capacity least-recently-used cache. Entries live in
// an index-linked arena so the cache does no per-operation allocation once it
// is full.
package lru

const nilIdx = -1

type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next int
}

// Cache maps keys to values, evicting the least recently used entry when a
// Put would exceed capacity. It is not safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	index    map[K]int
	arena    []entry[K, V]
	free     []int
	head     int // most recently used
	tail     int // least recently used
	onEvict  func(K, V)
}

// New returns a cache holding at most capacity entries. onEvict, when non-nil,
// is called with every entry dropped to make room.
func New[K comparable, V any](capacity int, onEvict func(K, V)) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		index:    make(map[K]int, capacity),
		arena:    make([]entry[K, V], 0, capacity),
		head:     nilIdx,
		tail:     nilIdx,
		onEvict:  onEvict,
	}
}

// Get returns the value for k and marks it most recently used.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	i, ok := c.index[k]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(i)
	return c.arena[i].value, true
}

// Contains reports whether k is cached without touching its recency.
func (c *Cache[K, V]) Contains(k K) bool {
	_, ok := c.index[k]
	return ok
}

// Put stores v under k as the most recently used entry.
func (c *Cache[K, V]) Put(k K, v V) {
	if i, ok := c.index[k]; ok {
		c.arena[i].value = v
		c.moveToFront(i)
		return
	}
	var i int
	switch {
	case len(c.free) > 0:
		i = c.free[len(c.free)-1]
		c.free = c.free[:len(c.free)-1]
	case len(c.arena) < c.capacity:
		c.arena = append(c.arena, entry[K, V]{})
		i = len(c.arena) - 1
	default:
		i = c.tail
		old := c.arena[i]
		c.unlink(i)
		delete(c.index, old.key)
		if c.onEvict != nil {
			c.onEvict(old.key, old.value)
		}
	}
	c.arena[i] = entry[K, V]{key: k, value: v, prev: nilIdx, next: nilIdx}
	c.index[k] = i
	c.pushFront(i)
}

// Remove drops k without calling the eviction callback.
func (c *Cache[K, V]) Remove(k K) bool {
	i, ok := c.index[k]
	if !ok {
		return false
	}
	c.unlink(i)
	delete(c.index, k)
	c.arena[i] = entry[K, V]{prev: nilIdx, next: nilIdx}
	c.free = append(c.free, i)
	return true
}

// Purge empties the cache.
func (c *Cache[K, V]) Purge() {
	clear(c.index)
	c.arena = c.arena[:0]
	c.free = c.free[:0]
	c.head, c.tail = nilIdx, nilIdx
}

func (c *Cache[K, V]) Len() int { return len(c.index) }

// Keys lists keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, len(c.index))
	for i := c.head; i != nilIdx; i = c.arena[i].next {
		keys = append(keys, c.arena[i].key)
	}
	return keys
}

func (c *Cache[K, V]) moveToFront(i int) {
	if c.head == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}

func (c *Cache[K, V]) pushFront(i int) {
	c.arena[i].prev = nilIdx
	c.arena[i].next = c.head
	if c.head != nilIdx {
		c.arena[c.head].prev = i
	}
	c.head = i
	if c.tail == nilIdx {
		c.tail = i
	}
}

func (c *Cache[K, V]) unlink(i int) {
	e := &c.arena[i]
	if e.prev != nilIdx {
		c.arena[e.prev].next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nilIdx {
		c.arena[e.next].prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nilIdx, nilIdx
}
