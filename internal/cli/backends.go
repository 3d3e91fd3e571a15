package cli

import (
	"context"
	"fmt"
	"log/slog"

	"daily-problem-service/internal/app"
	"daily-problem-service/internal/config"
	"daily-problem-service/internal/infra/filesystem"
	"daily-problem-service/internal/infra/memory"
	pgstore "daily-problem-service/internal/infra/postgres"
	redisstore "daily-problem-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// backends groups the storage selected by configuration.
type backends struct {
	store    app.ProblemStore
	files    *filesystem.ProblemStore // nil unless bundles come from disk
	cache    *memory.ProblemCache
	ledger   app.IndexLedger
	attempts app.AttemptLedger
	closers  []func()
}

func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	var redisClient *redis.Client
	if cfg.Ledger.Backend == config.LedgerRedis || cfg.Ledger.Attempts == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	var pool *pgxpool.Pool
	if cfg.Ledger.Backend == config.LedgerPostgres || cfg.Problems.Source == "postgres" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			b.Close()
			return nil, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		logger.Info("postgres connected")
	}

	if cfg.Problems.Source == "postgres" {
		b.store = pgstore.NewProblemStore(pool)
	} else {
		b.files = filesystem.NewProblemStore(cfg.Problems.Dir, cfg.Problems.AssetPrefix)
		b.store = b.files
	}
	b.cache = memory.NewProblemCache(b.store, config.TTLDuration(cfg.Problems.CacheTTL, 0))
	b.store = b.cache

	switch cfg.Ledger.Backend {
	case config.LedgerRedis:
		b.ledger = redisstore.NewIndexLedger(redisClient, cfg.Redis.Prefix)
	case config.LedgerPostgres:
		b.ledger = pgstore.NewIndexLedger(pool)
	default:
		b.ledger = filesystem.NewIndexLedger(cfg.Ledger.Path)
	}

	if cfg.Ledger.Attempts == "redis" {
		b.attempts = redisstore.NewAttemptLedger(redisClient, cfg.Redis.Prefix)
	} else {
		b.attempts = memory.NewAttemptLedger()
	}
	return b, nil
}

// Close releases connections in reverse order of opening.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
