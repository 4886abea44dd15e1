package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, "memory", cfg.Vector.Type)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 30, cfg.Registry.DiscoveryCooldown)
	assert.Equal(t, 3, cfg.Registry.BreakerThreshold)
	assert.Equal(t, 60, cfg.Registry.BreakerWindow)
	assert.Equal(t, 3600, cfg.Execution.ResultTTL)
	assert.True(t, cfg.Risk.SystemBlocks)
	assert.Equal(t, []string{"stop", "cancel", "quit", "exit"}, cfg.Orchestrator.StopWords)
	assert.Equal(t, 5, cfg.Orchestrator.MaxModificationRounds)
	assert.Equal(t, "terminal", cfg.Consent.Mode)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 45*time.Second, Seconds(45, time.Minute))
	assert.Equal(t, time.Minute, Seconds(0, time.Minute))
	assert.Equal(t, time.Minute, Seconds(-3, time.Minute))
}

func TestConfig_IsIdempotentTool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Execution.IdempotentTools = []string{"weather/forecast", "lookup"}

	tests := []struct {
		name     string
		server   string
		tool     string
		expected bool
	}{
		{name: "server qualified entry", server: "weather", tool: "forecast", expected: true},
		{name: "server qualified entry on other server", server: "other", tool: "forecast", expected: false},
		{name: "bare tool entry", server: "any", tool: "lookup", expected: true},
		{name: "read-like prefix", server: "files", tool: "read_file", expected: true},
		{name: "list prefix is case insensitive", server: "files", tool: "List_Directory", expected: true},
		{name: "side effecting tool", server: "files", tool: "write_file", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cfg.IsIdempotentTool(tt.server, tt.tool))
		})
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".toolgate", "config.yaml")

	cfg := DefaultConfig()
	cfg.Gateway.Model = "openai/gpt-4o-mini"
	cfg.MCP.Servers = []MCPServerEntry{{Name: "files", URL: "http://localhost:3000/mcp", Enabled: true}}
	cfg.Risk.SystemBlocks = false

	require.NoError(t, cfg.SaveConfig(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", loaded.Gateway.Model)
	assert.False(t, loaded.Risk.SystemBlocks)
	require.Len(t, loaded.MCP.Servers, 1)
	assert.Equal(t, "files", loaded.MCP.Servers[0].Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
