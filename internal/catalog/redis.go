package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const defaultPricesKey = "catalog:prices"

// RedisStore keeps unit prices in a single Redis hash keyed by Product.Key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore constructs a Redis-backed catalog. An empty key falls back to
// "catalog:prices".
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultPricesKey
	}
	return &RedisStore{client: client, key: key}
}

// AddProduct stores the price as its decimal string representation.
func (s *RedisStore) AddProduct(ctx context.Context, p Product, price decimal.Decimal) error {
	if s == nil || s.client == nil {
		return errors.New("catalog: redis client not configured")
	}
	if err := validatePrice(price); err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, p.Key(), price.String()).Err()
}

// UnitPrice reads the price for p.
func (s *RedisStore) UnitPrice(ctx context.Context, p Product) (decimal.Decimal, error) {
	if s == nil || s.client == nil {
		return decimal.Zero, errors.New("catalog: redis client not configured")
	}
	raw, err := s.client.HGet(ctx, s.key, p.Key()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, NotFound(p)
		}
		return decimal.Zero, fmt.Errorf("catalog: redis lookup: %w", err)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("catalog: decode price for %s: %w", p, err)
	}
	return price, nil
}

// Contains reports whether p has a stored price.
func (s *RedisStore) Contains(ctx context.Context, p Product) (bool, error) {
	if s == nil || s.client == nil {
		return false, errors.New("catalog: redis client not configured")
	}
	return s.client.HExists(ctx, s.key, p.Key()).Result()
}

// Ping checks connectivity for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("catalog: redis client not configured")
	}
	return s.client.Ping(ctx).Err()
}
