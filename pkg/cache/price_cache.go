// Package cache provides a sharded last-price store used to track how fresh
// each symbol's market data is.
package cache

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

const numShards = 16

// PriceCache keeps the last observed price and its arrival time per symbol.
type PriceCache struct {
	shards [numShards]*priceShard
	now    func() time.Time
}

type priceShard struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// Entry is one cached observation.
type Entry struct {
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewPriceCache() *PriceCache {
	c := &PriceCache{now: time.Now}
	for i := 0; i < numShards; i++ {
		c.shards[i] = &priceShard{items: make(map[string]Entry)}
	}
	return c
}

func (c *PriceCache) shard(key string) *priceShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%numShards]
}

// Set records price for symbol as of now.
func (c *PriceCache) Set(symbol string, price float64) {
	s := c.shard(symbol)
	s.mu.Lock()
	s.items[symbol] = Entry{Price: price, UpdatedAt: c.now()}
	s.mu.Unlock()
}

func (c *PriceCache) Get(symbol string) (Entry, bool) {
	s := c.shard(symbol)
	s.mu.RLock()
	e, ok := s.items[symbol]
	s.mu.RUnlock()
	return e, ok
}

// Age reports how long ago symbol was last updated.
func (c *PriceCache) Age(symbol string) (time.Duration, bool) {
	e, ok := c.Get(symbol)
	if !ok {
		return 0, false
	}
	return c.now().Sub(e.UpdatedAt), true
}

// Stale returns, in sorted order, the symbols that were never seen or whose
// last update is older than maxAge.
func (c *PriceCache) Stale(symbols []string, maxAge time.Duration) []string {
	var out []string
	for _, sym := range symbols {
		age, ok := c.Age(sym)
		if !ok || age > maxAge {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns total items across all shards.
func (c *PriceCache) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.items)
		s.mu.RUnlock()
	}
	return total
}

// Cleanup removes entries older than maxAge and returns how many were dropped.
func (c *PriceCache) Cleanup(maxAge time.Duration) int {
	removed := 0
	cutoff := c.now().Add(-maxAge)
	for _, s := range c.shards {
		s.mu.Lock()
		for sym, e := range s.items {
			if e.UpdatedAt.Before(cutoff) {
				delete(s.items, sym)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}
