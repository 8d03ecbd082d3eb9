package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairyhunter13/api-telemetry/internal/adapter/repo/memory"
	"github.com/fairyhunter13/api-telemetry/internal/adapter/repo/redisrepo"
	"github.com/fairyhunter13/api-telemetry/internal/config"
	"github.com/fairyhunter13/api-telemetry/internal/domain"
)

// BuildProductRepository returns the catalog store selected by cfg.ProductsBackend,
// seeded from cfg.ProductsSeedFile. The returned close func is never nil.
func BuildProductRepository(ctx context.Context, cfg config.Config) (domain.ProductRepository, func() error, error) {
	noop := func() error { return nil }
	seed, err := memory.LoadSeed(cfg.ProductsSeedFile)
	if err != nil {
		return nil, noop, err
	}
	switch cfg.ProductsBackend {
	case config.BackendRedis:
		rdb, err := redisrepo.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		repo := redisrepo.NewProductRepo(rdb, cfg.ProductsRedisKey)
		wrote, err := repo.Seed(ctx, seed)
		if err != nil {
			_ = rdb.Close()
			return nil, noop, err
		}
		slog.Info("product catalog ready", slog.String("backend", "redis"), slog.String("key", cfg.ProductsRedisKey), slog.Bool("seeded", wrote))
		return repo, rdb.Close, nil
	case config.BackendMemory, "":
		slog.Info("product catalog ready", slog.String("backend", "memory"), slog.Int("products", len(seed)))
		return memory.NewProductRepo(seed), noop, nil
	default:
		return nil, noop, fmt.Errorf("op=app.BuildProductRepository: unknown backend %q", cfg.ProductsBackend)
	}
}
