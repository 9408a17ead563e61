package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache is a read-through Redis cache in front of a slower catalog. Misses
// are never cached so a product added to the backend becomes visible at once.
type Cache struct {
	next   Catalog
	client *redis.Client
	ttl    time.Duration
	prefix string
}

type cachedPrice struct {
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// NewCache wraps next. With a nil client or non-positive ttl every call is
// delegated.
func NewCache(next Catalog, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{next: next, client: client, ttl: ttl, prefix: "catalog:price:"}
}

func (c *Cache) enabled() bool {
	return c.client != nil && c.ttl > 0
}

// UnitPrice serves from Redis when possible, falling back to the wrapped catalog.
func (c *Cache) UnitPrice(ctx context.Context, p Product) (decimal.Decimal, error) {
	if c == nil || c.next == nil {
		return decimal.Zero, errors.New("catalog: cache has no backing catalog")
	}
	if !c.enabled() {
		return c.next.UnitPrice(ctx, p)
	}
	var cached cachedPrice
	if ok, err := c.getJSON(ctx, c.prefix+p.Key(), &cached); err == nil && ok {
		return cached.UnitPrice, nil
	}
	price, err := c.next.UnitPrice(ctx, p)
	if err != nil {
		return decimal.Zero, err
	}
	// Cache writes are best effort; the price is already known.
	_ = c.setJSON(ctx, c.prefix+p.Key(), cachedPrice{UnitPrice: price})
	return price, nil
}

// Contains checks the cache before asking the backing catalog.
func (c *Cache) Contains(ctx context.Context, p Product) (bool, error) {
	if c == nil || c.next == nil {
		return false, errors.New("catalog: cache has no backing catalog")
	}
	if c.enabled() {
		n, err := c.client.Exists(ctx, c.prefix+p.Key()).Result()
		if err == nil && n > 0 {
			return true, nil
		}
	}
	return c.next.Contains(ctx, p)
}

// Invalidate drops the cached price of p.
func (c *Cache) Invalidate(ctx context.Context, p Product) error {
	if c == nil || !c.enabled() {
		return nil
	}
	return c.client.Del(ctx, c.prefix+p.Key()).Err()
}

func (c *Cache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
