// Copyright (c) 2025 BVK Chaitanya

package quote

import (
	"context"
	"time"

	"github.com/bvk/stockwatch/syncmap"
)

// DefaultCacheTTL is the lifetime of a cached quote.
const DefaultCacheTTL = time.Minute

type cacheItem struct {
	quote     *Quote
	expiresAt time.Time
}

// Cache is a Source that remembers successful quotes from another Source for
// a fixed duration. Errors, including ErrNoData, are not cached.
type Cache struct {
	source Source

	ttl time.Duration

	now func() time.Time

	itemMap syncmap.Map[string, *cacheItem]
}

var _ Source = &Cache{}

func NewCache(source Source, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Cache) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = Normalize(symbol)
	now := c.now()
	if item, ok := c.itemMap.Load(symbol); ok {
		if now.Before(item.expiresAt) {
			return item.quote.Clone(), nil
		}
		c.itemMap.CompareAndDelete(symbol, item)
	}

	q, err := c.source.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.itemMap.Store(symbol, &cacheItem{quote: q.Clone(), expiresAt: now.Add(c.ttl)})
	return q, nil
}

// Purge drops all expired items.
func (c *Cache) Purge() {
	now := c.now()
	c.itemMap.Range(func(symbol string, item *cacheItem) bool {
		if !now.Before(item.expiresAt) {
			c.itemMap.CompareAndDelete(symbol, item)
		}
		return true
	})
}

// Len returns the number of cached quotes, including expired ones that are
// not purged yet.
func (c *Cache) Len() int {
	return c.itemMap.Len()
}
