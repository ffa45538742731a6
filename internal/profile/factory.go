package profile

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/stashkeeper/internal/config"
)

// Open builds the store selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (Store, error) {
	codec, err := NewCodec(cfg.Storage.Compress)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(logrus.Fields{"component": "profile", "backend": cfg.Storage.Backend})

	switch cfg.Storage.Backend {
	case "memory":
		log.Info("using in-memory profile store")
		return NewMemoryStore(codec), nil
	case "redis":
		s, err := NewRedisStore(ctx, RedisOptions{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, codec)
		if err != nil {
			return nil, err
		}
		log.WithField("address", cfg.Redis.Address).Info("connected to Redis profile store")
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.SQLite.Path, codec)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.WithField("path", cfg.SQLite.Path).Info("opened sqlite profile store")
		return s, nil
	default:
		return nil, fmt.Errorf("profile: unknown storage backend %q", cfg.Storage.Backend)
	}
}
