package config

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/nano-midea/localstore/internal/kv"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

const connectTimeout = 10 * time.Second

// InitBackend opens the key-value backend selected by cfg
func InitBackend(ctx context.Context, cfg *Config) (kv.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		backend kv.Backend
		err     error
	)
	switch cfg.Backend {
	case BackendMemory:
		backend = kv.NewMemoryBackend()
	case BackendFile:
		backend, err = kv.NewFileBackend(cfg.FileDir)
	case BackendPostgres:
		backend, err = kv.OpenPostgres(cfg.PostgresURL)
	case BackendMongo:
		backend, err = kv.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoColl)
	case BackendRedis:
		backend, err = kv.OpenRedis(ctx, cfg.RedisURL, cfg.RedisKeyPrefix)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	logger.Info("storage backend ready", "backend", cfg.Backend)
	return backend, nil
}
