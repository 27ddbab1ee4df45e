package dedupe

import (
	"sync"
	"time"
)

type mark struct {
	id string
	at time.Time
}

// Cache remembers archive IDs that were indexed recently so repeated feed
// notifications do not re-index the same items. Entries expire after ttl
// and the oldest are evicted beyond capacity.
type Cache struct {
	mu       sync.Mutex
	now      func() time.Time
	seen     map[string]time.Time
	queue    []mark
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		now:      time.Now,
		seen:     make(map[string]time.Time, capacity),
		queue:    make([]mark, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Contains reports whether id was marked inside the ttl window.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.seen[id]
	return ok && c.now().Sub(at) <= c.ttl
}

// Mark records id as indexed.
func (c *Cache) Mark(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.seen[id] = now
	c.queue = append(c.queue, mark{id: id, at: now})
	c.evict(now)
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.queue) > 0 && (len(c.seen) > c.capacity || c.queue[0].at.Before(cutoff)) {
		head := c.queue[0]
		c.queue = c.queue[1:]

		// a re-marked id has a newer timestamp further down the queue
		if at, ok := c.seen[head.id]; ok && at.Equal(head.at) {
			delete(c.seen, head.id)
		}
	}
}
