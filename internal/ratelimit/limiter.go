// Package ratelimit throttles HTTP clients with github.com/ulule/limiter.
package ratelimit

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultPrefix namespaces limiter keys in the store.
const DefaultPrefix = "toko:ratelimit"

// NewStore returns a Redis-backed store when client is set and an in-process
// store otherwise.
func NewStore(client *redis.Client, prefix string) (limiter.Store, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	opts := limiter.StoreOptions{Prefix: prefix}
	if client == nil {
		return limitermemory.NewStoreWithOptions(opts), nil
	}
	store, err := limiterredis.NewStoreWithOptions(client, opts)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return store, nil
}

// New parses a formatted rate such as "120-M" and builds a limiter over store.
// An empty or "0" rate disables limiting and returns nil.
func New(store limiter.Store, formatted string) (*limiter.Limiter, error) {
	formatted = strings.TrimSpace(formatted)
	if formatted == "" || formatted == "0" {
		return nil, nil
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	return limiter.New(store, rate), nil
}
