package domain

import (
	"context"
	"time"
)

// CacheStore is an exact key/value store with per-entry expiry.
// Get returns ErrCacheMiss when the key is absent or expired.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// VectorMatch is a single nearest-neighbour hit
type VectorMatch struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// VectorStore is a similarity index over embeddings
type VectorStore interface {
	Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]string) error
	Query(ctx context.Context, embedding []float32, k int) ([]VectorMatch, error)
	Close() error
}

// Embedder turns text into an embedding vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ToolServerClient speaks the discover/invoke protocol to configured tool servers
type ToolServerClient interface {
	DiscoverTools(ctx context.Context, serverName string) ([]DiscoveredTool, error)
	CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*ToolCallResult, error)
}

// Prompt is a structured language model request
type Prompt struct {
	Operation string
	System    string
	User      string
}

// LanguageModel sends a prompt and returns the raw text completion
type LanguageModel interface {
	Send(ctx context.Context, prompt Prompt) (string, error)
}
