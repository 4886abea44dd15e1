package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewViper_MissingFileUsesDefaults(t *testing.T) {
	v, err := NewViper(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	defaults := DefaultConfig()
	assert.Equal(t, defaults.Gateway, cfg.Gateway)
	assert.Equal(t, defaults.Registry, cfg.Registry)
	assert.Equal(t, defaults.Orchestrator.StopWords, cfg.Orchestrator.StopWords)
	assert.Equal(t, defaults.Client.Retry.RetryableStatusCodes, cfg.Client.Retry.RetryableStatusCodes)
	assert.InDelta(t, defaults.Vector.MinScore, cfg.Vector.MinScore, 1e-9)
	assert.True(t, cfg.Risk.SystemBlocks)
}

func TestNewViper_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `gateway:
  url: http://gateway.internal:8080
  model: openai/gpt-4o
cache:
  type: redis
mcp:
  servers:
    - name: files
      url: http://localhost:3000/mcp
      enabled: true
      category: filesystem
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("TOOLGATE_GATEWAY_MODEL", "anthropic/claude-sonnet")
	t.Setenv("TOOLGATE_REGISTRY_DISCOVERY_COOLDOWN", "45")
	t.Setenv("TOOLGATE_RISK_SYSTEM_BLOCKS", "false")

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "http://gateway.internal:8080", cfg.Gateway.URL)
	assert.Equal(t, "anthropic/claude-sonnet", cfg.Gateway.Model)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, 6379, cfg.Cache.Redis.Port)
	assert.Equal(t, 45, cfg.Registry.DiscoveryCooldown)
	assert.False(t, cfg.Risk.SystemBlocks)

	require.Len(t, cfg.MCP.Servers, 1)
	assert.Equal(t, "files", cfg.MCP.Servers[0].Name)
	assert.Equal(t, "filesystem", cfg.MCP.Servers[0].Category)
	assert.True(t, cfg.MCP.Servers[0].Enabled)
}

func TestNewViper_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [unclosed"), 0644))

	_, err := NewViper(path)
	assert.Error(t, err)
}

func TestWriteViperConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	v, err := NewViper(path)
	require.NoError(t, err)
	v.Set("consent.mode", "strict")

	require.NoError(t, WriteViperConfig(v, 2))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Consent.Mode)
	assert.Equal(t, DefaultConfig().Registry, cfg.Registry)
}
