package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	codec "github.com/inference-gateway/toolgate/internal/codec"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	migrations "github.com/inference-gateway/toolgate/internal/infra/storage/migrations"
)

// Cache key namespaces. Each data class lives under its own prefix so it can
// be evicted independently with DeleteByPrefix.
const (
	PrefixToolSchema   = "tool_schema:"
	PrefixLLMAnalysis  = "llm_analysis:"
	PrefixDiscovery    = "discovery:"
	PrefixServerStatus = "server_status:"
	PrefixExecution    = "execution:"
	PrefixToolResult   = "tool_result:"
	PrefixSession      = "session:"
)

// Load decodes the value stored under key into out. It reports false on a
// cache miss; any other failure is returned as an error.
func Load(ctx context.Context, store domain.CacheStore, key string, out any) (bool, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, domain.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	if err := codec.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Save encodes value and stores it under key with the given ttl
func Save(ctx context.Context, store domain.CacheStore, key string, value any, ttl time.Duration) error {
	data, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}

	if err := store.SetWithTTL(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Migratable is implemented by SQL-backed stores
type Migratable interface {
	MigrationStatus(ctx context.Context) ([]migrations.Status, error)
}
