// Package app wires catalog backends, offers and HTTP routes into a server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/health"
	"github.com/noah-isme/toko-checkout/internal/offer"
	"github.com/noah-isme/toko-checkout/internal/ratelimit"
	"github.com/noah-isme/toko-checkout/internal/resilience"
	"github.com/noah-isme/toko-checkout/internal/seed"
)

// Dependencies enumerates the shared clients a server is built from. DB and
// Redis are nil when the configured backend does not need them.
type Dependencies struct {
	Config          *config.Config
	Logger          zerolog.Logger
	DB              *pgxpool.Pool
	Redis           *redis.Client
	Validator       *validator.Validate
	Limiter         *limiter.Limiter
	MetricsRegistry prometheus.Registerer
	Gatherer        prometheus.Gatherer
}

// Store is the assembled catalog: Reader serves checkouts (cached and
// guarded where applicable) and Writer receives seed data.
type Store struct {
	Reader catalog.Catalog
	Writer catalog.Writer
	Offers *offer.Book
	Probes []health.Probe
}

// NewValidator returns the validator shared by HTTP handlers.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// NewLimiter wires the checkout rate limiter over Redis when a client is
// available and in memory otherwise.
func NewLimiter(rdb *redis.Client, formatted string) (*limiter.Limiter, error) {
	store, err := ratelimit.NewStore(rdb, "")
	if err != nil {
		return nil, err
	}
	return ratelimit.New(store, formatted)
}

// BuildStore selects the catalog backend named by the configuration and loads
// offers from the seed file. For the memory backend the seed file also
// provides the prices; remote backends are populated by the seeder tool.
func BuildStore(ctx context.Context, deps *Dependencies) (*Store, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	s := &Store{Offers: offer.NewBook()}
	breaker := resilience.NewBreaker(resilience.Settings{
		Target:       "catalog_" + cfg.CatalogBackend,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
		OpenFor:      cfg.Breaker.OpenFor,
		Logger:       &deps.Logger,
	})

	switch cfg.CatalogBackend {
	case config.BackendMemory:
		mem := catalog.NewMemory()
		s.Reader, s.Writer = mem, mem
	case config.BackendRedis:
		if deps.Redis == nil {
			return nil, errors.New("app: redis backend needs a redis client")
		}
		store := catalog.NewRedisStore(deps.Redis, "")
		s.Reader, s.Writer = catalog.NewGuarded(store, breaker), store
	case config.BackendPostgres:
		if deps.DB == nil {
			return nil, errors.New("app: postgres backend needs a database pool")
		}
		store, err := catalog.NewPostgresStore(deps.DB)
		if err != nil {
			return nil, err
		}
		s.Reader = catalog.NewCache(catalog.NewGuarded(store, breaker), deps.Redis, cfg.CatalogCacheTTL)
		s.Writer = store
	default:
		return nil, fmt.Errorf("app: unknown catalog backend %q", cfg.CatalogBackend)
	}

	writer := s.Writer
	if cfg.CatalogBackend != config.BackendMemory {
		writer = nil
	}
	sd, err := seed.LoadInto(ctx, cfg.SeedFile, writer, s.Offers)
	if err != nil {
		return nil, err
	}
	deps.Logger.Info().
		Str("backend", cfg.CatalogBackend).
		Str("seed_file", cfg.SeedFile).
		Int("products", len(sd.Products)).
		Int("offers", s.Offers.Len()).
		Msg("catalog_ready")

	s.Probes = probes(deps, breaker, cfg.Obs.ReadyProbeTimeout)
	return s, nil
}

func probes(deps *Dependencies, breaker *resilience.Breaker, timeout time.Duration) []health.Probe {
	var out []health.Probe
	if deps.DB != nil {
		out = append(out, health.Probe{Name: "postgres", Timeout: timeout, Check: deps.DB.Ping})
	}
	if deps.Redis != nil {
		out = append(out, health.Probe{Name: "redis", Timeout: timeout, Check: func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}})
	}
	if deps.Config.CatalogBackend != config.BackendMemory {
		out = append(out, health.Probe{Name: "catalog", Check: func(context.Context) error {
			if breaker.State() == resilience.Open {
				return resilience.ErrOpenCircuit
			}
			return nil
		}})
	}
	return out
}
