package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/lucidportal/backend/internal/config"
	"github.com/lucidportal/backend/internal/infrastructure/mirror"
	pgInfra "github.com/lucidportal/backend/internal/infrastructure/postgres"
	redisInfra "github.com/lucidportal/backend/internal/infrastructure/redis"
	"github.com/lucidportal/backend/internal/services/lifecycle"
	"github.com/lucidportal/backend/repository"
	pgRepo "github.com/lucidportal/backend/repository/postgres"
	redisRepo "github.com/lucidportal/backend/repository/redis"
	"github.com/lucidportal/backend/repository/rest"
)

// localMirror is a LocalMirror that can also report how many keys it holds.
type localMirror interface {
	repository.LocalMirror
	Size() (int, error)
}

func openMirror(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (localMirror, error) {
	switch cfg.Mirror.Driver {
	case config.MirrorRedis:
		client, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		manager.Register("redis", func(context.Context) error {
			return client.Close()
		})
		return redisRepo.NewMirror(client, cfg.Context.RequestTimeout), nil
	default:
		db, err := mirror.Open(cfg.Mirror.Path, cfg.Mirror.Bucket)
		if err != nil {
			return nil, err
		}
		manager.Register("mirror", func(context.Context) error {
			return db.Close()
		})
		logger.Info("local mirror opened", zap.String("driver", config.MirrorBolt), zap.String("path", cfg.Mirror.Path))
		return db, nil
	}
}

// openRemote returns nil when no remote is usable.
func openRemote(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) repository.RemoteBackend {
	switch cfg.Remote.Driver {
	case config.RemoteREST:
		if !cfg.RESTConfigured() {
			logger.Warn("SUPABASE_URL or SUPABASE_ANON_KEY missing, running on the local mirror only")
			return nil
		}
		return rest.NewClient(rest.Config{
			URL:     cfg.Remote.URL,
			Key:     cfg.Remote.Key,
			Timeout: cfg.Remote.Timeout,
		}, logger)
	case config.RemotePostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			logger.Warn("migrations failed, running on the local mirror only", zap.Error(err))
			return nil
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			logger.Warn("postgres unavailable, running on the local mirror only", zap.Error(err))
			return nil
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return pgRepo.NewTableStore(pool, logger)
	default:
		logger.Info("remote backend disabled", zap.String("driver", cfg.Remote.Driver))
		return nil
	}
}
