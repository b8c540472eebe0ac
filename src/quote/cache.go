package quote

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache decorates a Provider with an in-memory TTL cache keyed by symbol.
// Only successful quotes are cached; errors and not-ok answers always pass
// through so a transient upstream failure never sticks for the TTL. Many
// portfolios hold the same symbols, so the valuation daemon wraps its provider
// in one of these to keep the per-tick fan-out cheap.
type Cache struct {
	next Provider
	mem  *gocache.Cache
}

func NewCache(next Provider, ttl time.Duration) *Cache {
	return &Cache{
		next: next,
		mem:  gocache.New(ttl, 2*ttl),
	}
}

func (c *Cache) Quote(ctx context.Context, symbol string) (Quote, bool, error) {
	if cached, hit := c.mem.Get(symbol); hit {
		return cached.(Quote), true, nil
	}

	q, ok, err := c.next.Quote(ctx, symbol)
	if err != nil || !ok {
		return q, ok, err
	}

	c.mem.Set(symbol, q, gocache.DefaultExpiration)
	return q, true, nil
}
