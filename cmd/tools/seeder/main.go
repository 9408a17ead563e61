package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/config"
	"github.com/noah-isme/toko-checkout/internal/lock"
	"github.com/noah-isme/toko-checkout/internal/obs"
	"github.com/noah-isme/toko-checkout/internal/offer"
	"github.com/noah-isme/toko-checkout/internal/seed"
)

const seedLockKey = "toko:lock:catalog-seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "seeder").Logger()

	file := flag.String("file", cfg.SeedFile, "seed file with products and offers")
	backend := flag.String("backend", cfg.CatalogBackend, "catalog backend to populate (postgres or redis)")
	runMigrations := flag.Bool("migrate", true, "apply catalog migrations before seeding postgres")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	var writer catalog.Writer
	switch strings.ToLower(*backend) {
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			logger.Fatal().Msg("DATABASE_URL is not set")
		}
		if *runMigrations {
			if err := catalog.Migrate(cfg.DatabaseURL); err != nil {
				logger.Fatal().Err(err).Msg("apply migrations")
			}
			logger.Info().Msg("migrations applied")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		store, err := catalog.NewPostgresStore(pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("build postgres store")
		}
		writer = store
	case config.BackendRedis:
		if rdb == nil {
			logger.Fatal().Msg("REDIS_URL is not set")
		}
		writer = catalog.NewRedisStore(rdb, "")
	default:
		logger.Error().Str("backend", *backend).Msg("nothing to seed for this backend")
		os.Exit(2)
	}

	var s *seed.Seed
	apply := func(ctx context.Context) error {
		var err error
		s, err = seed.LoadInto(ctx, *file, writer, offer.NewBook())
		return err
	}
	if rdb != nil {
		err = lock.Locker{Client: rdb}.WithLock(ctx, seedLockKey, time.Minute, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("file", *file).Msg("seed catalog")
	}
	logSummary(logger, *backend, *file, s)
}

func logSummary(logger zerolog.Logger, backend, file string, s *seed.Seed) {
	logger.Info().
		Str("backend", backend).
		Str("file", file).
		Int("products", len(s.Products)).
		Int("offers", len(s.Offers)).
		Msg("seeding completed")
}
