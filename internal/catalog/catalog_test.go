package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/resilience"
)

var (
	toothbrush = catalog.NewProduct("toothbrush", catalog.UnitEach)
	apples     = catalog.NewProduct("apples", catalog.UnitKilo)
)

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestParseUnit(t *testing.T) {
	u, err := catalog.ParseUnit(" KG ")
	require.NoError(t, err)
	require.Equal(t, catalog.UnitKilo, u)

	u, err = catalog.ParseUnit("each")
	require.NoError(t, err)
	require.Equal(t, catalog.UnitEach, u)

	_, err = catalog.ParseUnit("litre")
	require.ErrorIs(t, err, catalog.ErrUnknownUnit)
}

func TestProductJSONUsesUnitNames(t *testing.T) {
	data, err := json.Marshal(apples)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"apples","unit":"kilo"}`, string(data))

	var decoded catalog.Product
	require.NoError(t, json.Unmarshal([]byte(`{"name":"apples","unit":"weight"}`), &decoded))
	require.Equal(t, apples, decoded)
}

func TestProductEqualityNeedsNameAndUnit(t *testing.T) {
	require.Equal(t, catalog.NewProduct("rice", catalog.UnitKilo), catalog.NewProduct(" rice ", catalog.UnitKilo))
	require.NotEqual(t, catalog.NewProduct("rice", catalog.UnitKilo), catalog.NewProduct("rice", catalog.UnitEach))
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	mem := catalog.NewMemory()
	require.NoError(t, mem.AddProduct(ctx, toothbrush, decimal.RequireFromString("0.99")))
	require.ErrorIs(t, mem.AddProduct(ctx, apples, decimal.Zero), catalog.ErrInvalidPrice)

	price, err := mem.UnitPrice(ctx, toothbrush)
	require.NoError(t, err)
	requireDecimal(t, "0.99", price)

	_, err = mem.UnitPrice(ctx, apples)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	ok, err := mem.Contains(ctx, toothbrush)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mem.AddProduct(ctx, apples, decimal.RequireFromString("1.99")))
	entries := mem.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, apples, entries[0].Product)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	store := catalog.NewRedisStore(client, "")

	require.NoError(t, store.AddProduct(ctx, apples, decimal.RequireFromString("1.99")))
	price, err := store.UnitPrice(ctx, apples)
	require.NoError(t, err)
	requireDecimal(t, "1.99", price)

	_, err = store.UnitPrice(ctx, toothbrush)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	ok, err := store.Contains(ctx, apples)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = store.Contains(ctx, catalog.NewProduct("apples", catalog.UnitEach))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Ping(ctx))
}

type countingCatalog struct {
	catalog.Catalog
	lookups int
}

func (c *countingCatalog) UnitPrice(ctx context.Context, p catalog.Product) (decimal.Decimal, error) {
	c.lookups++
	return c.Catalog.UnitPrice(ctx, p)
}

func TestCacheServesRepeatLookups(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	mem := catalog.NewMemory()
	require.NoError(t, mem.AddProduct(ctx, toothbrush, decimal.RequireFromString("0.99")))
	backing := &countingCatalog{Catalog: mem}
	cache := catalog.NewCache(backing, client, time.Minute)

	for i := 0; i < 3; i++ {
		price, err := cache.UnitPrice(ctx, toothbrush)
		require.NoError(t, err)
		requireDecimal(t, "0.99", price)
	}
	require.Equal(t, 1, backing.lookups)

	_, err := cache.UnitPrice(ctx, apples)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
	_, err = cache.UnitPrice(ctx, apples)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
	require.Equal(t, 3, backing.lookups, "misses must not be cached")

	ok, err := cache.Contains(ctx, toothbrush)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, err = cache.UnitPrice(ctx, toothbrush)
	require.NoError(t, err)
	require.Equal(t, 4, backing.lookups, "expired entries must be reloaded")

	require.NoError(t, cache.Invalidate(ctx, toothbrush))
	_, err = cache.UnitPrice(ctx, toothbrush)
	require.NoError(t, err)
	require.Equal(t, 5, backing.lookups)
}

func TestCacheWithoutRedisDelegates(t *testing.T) {
	ctx := context.Background()
	mem := catalog.NewMemory()
	require.NoError(t, mem.AddProduct(ctx, apples, decimal.RequireFromString("1.99")))
	backing := &countingCatalog{Catalog: mem}
	cache := catalog.NewCache(backing, nil, time.Minute)

	_, err := cache.UnitPrice(ctx, apples)
	require.NoError(t, err)
	_, err = cache.UnitPrice(ctx, apples)
	require.NoError(t, err)
	require.Equal(t, 2, backing.lookups)
}

type stubRow struct {
	value any
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *string:
		*d = r.value.(string)
	case *bool:
		*d = r.value.(bool)
	default:
		return errors.New("unexpected scan target")
	}
	return nil
}

type fakeQueries struct {
	prices map[string]string
	err    error
}

func (f *fakeQueries) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if f.err != nil {
		return stubRow{err: f.err}
	}
	key := args[1].(string) + ":" + args[0].(string)
	price, ok := f.prices[key]
	if strings.HasPrefix(sql, "SELECT EXISTS") {
		return stubRow{value: ok}
	}
	if !ok {
		return stubRow{err: pgx.ErrNoRows}
	}
	return stubRow{value: price}
}

func (f *fakeQueries) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	f.prices[args[1].(string)+":"+args[0].(string)] = args[2].(string)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	_, err := catalog.NewPostgresStore(nil)
	require.Error(t, err)

	queries := &fakeQueries{prices: map[string]string{}}
	store, err := catalog.NewPostgresStore(queries)
	require.NoError(t, err)

	require.NoError(t, store.AddProduct(ctx, apples, decimal.RequireFromString("1.99")))
	require.Equal(t, "1.99", queries.prices["kilo:apples"])

	price, err := store.UnitPrice(ctx, apples)
	require.NoError(t, err)
	requireDecimal(t, "1.99", price)

	_, err = store.UnitPrice(ctx, toothbrush)
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	ok, err := store.Contains(ctx, apples)
	require.NoError(t, err)
	require.True(t, ok)

	queries.err = errors.New("connection reset")
	_, err = store.UnitPrice(ctx, apples)
	require.Error(t, err)
	require.NotErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestMigrationURL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@db:5432/toko?sslmode=disable", catalog.MigrationURL("postgres://u:p@db:5432/toko?sslmode=disable"))
	require.Equal(t, "pgx5://db/toko", catalog.MigrationURL("postgresql://db/toko"))
	require.Equal(t, "pgx5://db/toko", catalog.MigrationURL("pgx5://db/toko"))
}

func TestGuardedOpensOnBackendFailures(t *testing.T) {
	ctx := context.Background()
	queries := &fakeQueries{prices: map[string]string{"kilo:apples": "1.99"}}
	store, err := catalog.NewPostgresStore(queries)
	require.NoError(t, err)
	breaker := resilience.NewBreaker(resilience.Settings{MinRequests: 2, FailureRatio: 0.5, OpenFor: time.Hour})
	guarded := catalog.NewGuarded(store, breaker)

	for i := 0; i < 5; i++ {
		_, err := guarded.UnitPrice(ctx, toothbrush)
		require.ErrorIs(t, err, catalog.ErrProductNotFound)
	}
	require.Equal(t, resilience.Closed, breaker.State())

	price, err := guarded.UnitPrice(ctx, apples)
	require.NoError(t, err)
	requireDecimal(t, "1.99", price)

	queries.err = errors.New("connection reset")
	for i := 0; i < 2; i++ {
		_, err := guarded.UnitPrice(ctx, apples)
		require.Error(t, err)
	}
	require.Equal(t, resilience.Open, breaker.State())

	_, err = guarded.Contains(ctx, apples)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
}
