package services

import (
	"context"
	"time"

	codec "github.com/inference-gateway/toolgate/internal/codec"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	logger "github.com/inference-gateway/toolgate/internal/logger"
)

var _ domain.LanguageModel = (*Memoizer)(nil)

const defaultAnalysisTTL = time.Hour

// Memoizer caches language model replies keyed by operation and a digest
// of the prompt. Cache failures fall through to the model.
type Memoizer struct {
	model domain.LanguageModel
	cache domain.CacheStore
	ttl   time.Duration
}

// NewMemoizer wraps model with a reply cache
func NewMemoizer(model domain.LanguageModel, cache domain.CacheStore, ttl time.Duration) *Memoizer {
	if ttl <= 0 {
		ttl = defaultAnalysisTTL
	}
	return &Memoizer{
		model: model,
		cache: cache,
		ttl:   ttl,
	}
}

// Key returns the cache key for prompt
func (m *Memoizer) Key(prompt domain.Prompt) (string, error) {
	digest, err := codec.Digest(prompt.Operation, prompt.System, prompt.User)
	if err != nil {
		return "", err
	}
	return storage.PrefixLLMAnalysis + prompt.Operation + ":" + digest, nil
}

// Send returns the cached reply for prompt or asks the model and caches a
// successful reply
func (m *Memoizer) Send(ctx context.Context, prompt domain.Prompt) (string, error) {
	key, err := m.Key(prompt)
	if err != nil {
		logger.S(ctx).Warnw("Failed to derive analysis cache key", "operation", prompt.Operation, "error", err)
		return m.model.Send(ctx, prompt)
	}

	var cached string
	found, err := storage.Load(ctx, m.cache, key, &cached)
	if err != nil {
		logger.S(ctx).Warnw("Analysis cache unavailable, calling model directly", "operation", prompt.Operation, "error", err)
	}
	if found {
		logger.S(ctx).Debugw("Analysis cache hit", "operation", prompt.Operation)
		return cached, nil
	}

	reply, err := m.model.Send(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := storage.Save(ctx, m.cache, key, reply, m.ttl); err != nil {
		logger.S(ctx).Warnw("Failed to cache analysis", "operation", prompt.Operation, "error", err)
	}
	return reply, nil
}
