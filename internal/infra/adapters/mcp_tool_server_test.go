package adapters

import (
	"context"
	"errors"
	"testing"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	mcp "github.com/metoro-io/mcp-golang"
	assert "github.com/stretchr/testify/assert"
)

func TestFormatContent(t *testing.T) {
	assert.Equal(t, "", formatContent(nil))

	response := &mcp.ToolResponse{
		Content: []*mcp.Content{
			{TextContent: &mcp.TextContent{Text: "first"}},
			nil,
			{TextContent: &mcp.TextContent{Text: ""}},
			{ImageContent: &mcp.ImageContent{Data: "aGk=", MimeType: "image/png"}},
			{TextContent: &mcp.TextContent{Text: "second"}},
		},
	}
	assert.Equal(t, "first\n[Image content]\nsecond", formatContent(response))
}

func TestMCPToolServer_UnknownAndDisabledServers(t *testing.T) {
	cfg := &config.MCPConfig{
		ConnectionTimeout: 5,
		DiscoveryTimeout:  5,
		Servers: []config.MCPServerEntry{
			{Name: "off", URL: "http://127.0.0.1:1/mcp", Enabled: false},
		},
	}
	server := NewMCPToolServer(cfg, "")
	ctx := context.Background()

	_, err := server.DiscoverTools(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrUnknownServer))

	_, err = server.CallTool(ctx, "off", "anything", nil)
	var toolErr *domain.ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "off", toolErr.Server)
}

func TestMCPToolServer_UnreachableServer(t *testing.T) {
	cfg := &config.MCPConfig{
		ConnectionTimeout: 1,
		DiscoveryTimeout:  1,
		Servers: []config.MCPServerEntry{
			{Name: "down", URL: "http://127.0.0.1:1/mcp", Enabled: true},
		},
	}
	server := NewMCPToolServer(cfg, "test")

	_, err := server.DiscoverTools(context.Background(), "down")
	var toolErr *domain.ToolError
	assert.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "down", toolErr.Server)
}
