package oracle

import (
	"context"
	"time"

	"github.com/coocood/freecache"

	"github.com/LavaJover/shvark-kickstarter-service/internal/amount"
	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

// CachedOracle keeps recent rates per source for ttl. Failures are never
// cached.
type CachedOracle struct {
	next  domain.PriceOracle
	cache *freecache.Cache
	ttl   int
}

// NewCachedOracle wraps next with a cache of sizeMB megabytes. A zero size
// or a ttl under one second returns next unchanged.
func NewCachedOracle(next domain.PriceOracle, sizeMB int, ttl time.Duration) domain.PriceOracle {
	if sizeMB <= 0 || ttl < time.Second {
		return next
	}
	return &CachedOracle{
		next:  next,
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   int(ttl / time.Second),
	}
}

func (c *CachedOracle) CurrentExchangeRate(ctx context.Context, source string) (amount.Balance, error) {
	key := []byte(source)
	if v, err := c.cache.Get(key); err == nil {
		if rate, err := amount.Parse(string(v)); err == nil {
			return rate, nil
		}
		c.cache.Del(key)
	}

	rate, err := c.next.CurrentExchangeRate(ctx, source)
	if err != nil {
		return amount.Balance{}, err
	}
	// A full cache only costs a lookup next time.
	_ = c.cache.Set(key, []byte(rate.String()), c.ttl)
	return rate, nil
}
