package container

import (
	"context"
	"path/filepath"
	"testing"

	config "github.com/inference-gateway/toolgate/config"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func TestNewServiceContainer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Consent.Mode = "permissive"
	cfg.Vector.Type = "sqlite"
	cfg.Vector.SQLite.Path = filepath.Join(t.TempDir(), "vectors.db")

	c, err := NewServiceContainer(context.Background(), cfg, "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.NotNil(t, c.GetToolRegistry())
	assert.NotNil(t, c.GetExecutionTracker())
	assert.NotNil(t, c.GetOrchestrator())
	assert.NotNil(t, c.GetCache())
	assert.Nil(t, c.GetConfigService())
	assert.Same(t, cfg, c.GetConfig())
}

func TestNewServiceContainer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown cache",
			mutate: func(cfg *config.Config) { cfg.Cache.Type = "memcached" },
			want:   "unsupported cache type",
		},
		{
			name:   "unknown vector store",
			mutate: func(cfg *config.Config) { cfg.Vector.Type = "faiss" },
			want:   "unsupported vector store type",
		},
		{
			name:   "unknown embedder",
			mutate: func(cfg *config.Config) { cfg.Embedding.Provider = "word2vec" },
			want:   "unsupported embedding provider",
		},
		{
			name:   "unknown consent mode",
			mutate: func(cfg *config.Config) { cfg.Consent.Mode = "sometimes" },
			want:   "unsupported consent mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			_, err := NewServiceContainer(context.Background(), cfg, "test", nil)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := NewServiceContainer(context.Background(), nil, "test", nil)
	assert.Error(t, err)
}

func TestCreateSDKClient_BaseURL(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Gateway.URL = "http://gateway:8080/"
	c := &ServiceContainer{config: cfg}

	assert.NotNil(t, c.createSDKClient())
	assert.True(t, c.createRetryConfig().Enabled)
	assert.NotNil(t, c.createRetryConfig().OnRetry)
}
