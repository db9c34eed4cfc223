package symlower

import (
	"sync/atomic"

	"github.com/njchilds90/symlower/expr"
	"github.com/njchilds90/symlower/sx"
)

// Cache maps source node identities to their lowered form. A Cache belongs
// to one Session and is only written while that session holds it.
type Cache struct {
	busy    atomic.Bool
	entries map[expr.ID]*sx.Matrix
	hits    int
	misses  int
}

// CacheStats counts cache traffic since the last reset.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

func newCache() *Cache { return &Cache{entries: map[expr.ID]*sx.Matrix{}} }

func (c *Cache) acquire() bool { return c.busy.CompareAndSwap(false, true) }
func (c *Cache) release()      { c.busy.Store(false) }

func (c *Cache) get(id expr.ID) (*sx.Matrix, bool) {
	m, ok := c.entries[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

func (c *Cache) put(id expr.ID, m *sx.Matrix) { c.entries[id] = m }

func (c *Cache) reset() {
	c.entries = map[expr.ID]*sx.Matrix{}
	c.hits, c.misses = 0, 0
}

// Lookup returns the lowered form of the node with the given ID, if any.
// It does not count as a hit. It returns ErrConcurrentUse while a lowering
// pass holds the cache.
func (c *Cache) Lookup(id expr.ID) (*sx.Matrix, bool, error) {
	if !c.acquire() {
		return nil, false, ErrConcurrentUse
	}
	defer c.release()
	m, ok := c.entries[id]
	return m, ok, nil
}

// Stats reports the cache counters. It returns ErrConcurrentUse while a
// lowering pass holds the cache.
func (c *Cache) Stats() (CacheStats, error) {
	if !c.acquire() {
		return CacheStats{}, ErrConcurrentUse
	}
	defer c.release()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}, nil
}
