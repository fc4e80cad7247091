package storage

import (
	"context"
	"fmt"
	"net"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "storefront"

// NewRedisClient builds a go-redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Open returns the KV backend selected by cfg.Storage.Backend
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KV, error) {
	switch cfg.Storage.Backend {
	case "", "bolt":
		logger.Info("Using bolt storage", zap.String("path", cfg.Storage.Path))
		return NewBoltKV(cfg.Storage.Path)

	case "redis":
		client := NewRedisClient(cfg.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Using redis storage", zap.String("addr", client.Options().Addr))
		return NewRedisKV(client, redisKeyPrefix), nil

	case "postgres":
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		version, err := database.SchemaVersion(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Using postgres storage",
			zap.String("host", cfg.Database.Host),
			zap.Int64("schema_version", version),
		)
		return NewPostgresKV(db), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
