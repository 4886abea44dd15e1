package storage

import (
	"fmt"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
)

// NewCacheStore creates the exact cache backend selected by configuration
func NewCacheStore(cfg config.CacheConfig) (domain.CacheStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// NewVectorStore creates the vector index backend selected by configuration
func NewVectorStore(cfg config.VectorConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryVectorStore(cfg.MinScore), nil
	case "sqlite":
		return NewSQLiteVectorStore(cfg.SQLite, cfg.MinScore)
	case "postgres":
		return NewPostgresVectorStore(cfg.Postgres, cfg.MinScore)
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}
}
