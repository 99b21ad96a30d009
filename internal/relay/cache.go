package relay

import (
	"sync"
	"time"

	"rideshare/internal/general/contracts"
)

// Key correlates a published ride update to the rider waiting on it.
type Key struct {
	UserID string
	RideID string
}

// String renders the key the way it appears in logs.
func (k Key) String() string { return k.UserID + ":" + k.RideID }

type cacheEntry struct {
	update     contracts.RideUpdateMessage
	insertedAt time.Time
}

// UpdateCache is a short-term keyed buffer for ride updates that arrive before
// their waiter registers. At most one entry is held per key; the newest update
// wins, since only the latest status matters to a status-check caller. Entries
// not claimed within the TTL are evicted lazily on access and by Sweep.
type UpdateCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]cacheEntry
}

// NewUpdateCache creates a cache whose entries expire after ttl.
func NewUpdateCache(ttl time.Duration) *UpdateCache {
	return &UpdateCache{
		ttl:     ttl,
		entries: make(map[Key]cacheEntry),
	}
}

// Put inserts or overwrites the entry for key.
func (c *UpdateCache) Put(key Key, update contracts.RideUpdateMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{update: update, insertedAt: time.Now()}
}

// TakeAndClear atomically reads and removes the entry for key. An expired
// entry is treated as absent and discarded.
func (c *UpdateCache) TakeAndClear(key Key) (contracts.RideUpdateMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return contracts.RideUpdateMessage{}, false
	}
	delete(c.entries, key)

	if time.Since(e.insertedAt) > c.ttl {
		return contracts.RideUpdateMessage{}, false
	}
	return e.update, true
}

// Sweep removes all expired entries and reports how many were evicted.
// Bounds memory when rides are never polled for.
func (c *UpdateCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	cutoff := time.Now().Add(-c.ttl)
	for key, e := range c.entries {
		if e.insertedAt.Before(cutoff) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of buffered entries, expired ones included.
func (c *UpdateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
