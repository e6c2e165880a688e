package market

import (
	"sync"
	"time"

	"crypto_dash/internal/domain"
)

type snapshotEntry struct {
	coins   []domain.Coin
	written time.Time
}

// SnapshotCache holds coin-list responses keyed by endpoint + serialized
// params. An entry has two validity windows: fresh (served instead of a
// network call) and stale (served only as a degraded fallback after the live
// call failed). Lookups return copies, so hits never alias the stored
// snapshot or each other. There is no background eviction; entries are
// superseded on the next successful write. Thread-safe.
type SnapshotCache struct {
	mu      sync.Mutex
	fresh   time.Duration
	stale   time.Duration
	entries map[string]snapshotEntry
}

// NewSnapshotCache creates an empty cache with the given validity windows.
func NewSnapshotCache(fresh, stale time.Duration) *SnapshotCache {
	return &SnapshotCache{
		fresh:   fresh,
		stale:   stale,
		entries: make(map[string]snapshotEntry),
	}
}

// Put stores a snapshot under key, stamped now.
func (c *SnapshotCache) Put(key string, coins []domain.Coin) {
	c.PutAt(key, coins, time.Now())
}

// PutAt stores a snapshot with an explicit write time.
func (c *SnapshotCache) PutAt(key string, coins []domain.Coin, written time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = snapshotEntry{coins: coins, written: written}
}

// Fresh returns the entry for key if it is within the fresh window.
func (c *SnapshotCache) Fresh(key string) ([]domain.Coin, bool) {
	return c.lookup(key, c.fresh)
}

// Usable returns the entry for key if it is within the stale window.
// Callers use this only after the live call failed at final retry.
func (c *SnapshotCache) Usable(key string) ([]domain.Coin, bool) {
	return c.lookup(key, c.stale)
}

func (c *SnapshotCache) lookup(key string, window time.Duration) ([]domain.Coin, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Since(entry.written) >= window {
		return nil, false
	}

	// Hand out a copy so no caller can mutate the stored snapshot.
	out := make([]domain.Coin, len(entry.coins))
	copy(out, entry.coins)
	return out, true
}

// Len returns the number of stored entries (for monitoring).
func (c *SnapshotCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
