package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	mcp "github.com/metoro-io/mcp-golang"
	mcphttp "github.com/metoro-io/mcp-golang/transport/http"
)

var _ domain.ToolServerClient = (*MCPToolServer)(nil)

const clientName = "toolgate"

// MCPToolServer talks to configured MCP servers over HTTP. Every call
// opens its own client and initializes it, so no connection outlives
// the operation that needed it.
type MCPToolServer struct {
	config  *config.MCPConfig
	version string
}

// NewMCPToolServer creates a tool server client for the configured servers
func NewMCPToolServer(cfg *config.MCPConfig, version string) *MCPToolServer {
	if version == "" {
		version = "dev"
	}
	return &MCPToolServer{
		config:  cfg,
		version: version,
	}
}

func (s *MCPToolServer) server(name string) (config.MCPServerEntry, error) {
	server, ok := s.config.FindServer(name)
	if !ok {
		return config.MCPServerEntry{}, &domain.ToolError{Server: name, Err: domain.ErrUnknownServer}
	}
	if !server.Enabled {
		return config.MCPServerEntry{}, &domain.ToolError{Server: name, Err: fmt.Errorf("server is disabled")}
	}
	return server, nil
}

func (s *MCPToolServer) connect(ctx context.Context, server config.MCPServerEntry) (*mcp.Client, error) {
	transport := mcphttp.NewHTTPClientTransport(server.GetURL())

	client := mcp.NewClientWithInfo(transport, mcp.ClientInfo{
		Name:    clientName,
		Version: s.version,
	})

	if _, err := client.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}
	return client, nil
}

// DiscoverTools lists the tools a server exposes, honouring include/exclude filters
func (s *MCPToolServer) DiscoverTools(ctx context.Context, serverName string) ([]domain.DiscoveredTool, error) {
	server, err := s.server(serverName)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(server.GetTimeout(s.config.DiscoveryTimeout)) * time.Second
	discoverCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := s.connect(discoverCtx, server)
	if err != nil {
		return nil, &domain.ToolError{Server: serverName, Err: err}
	}

	toolsResp, err := client.ListTools(discoverCtx, nil)
	if err != nil {
		return nil, &domain.ToolError{Server: serverName, Err: fmt.Errorf("failed to list tools: %w", err)}
	}

	tools := make([]domain.DiscoveredTool, 0, len(toolsResp.Tools))
	for _, tool := range toolsResp.Tools {
		if !server.ShouldIncludeTool(tool.Name) {
			logger.S(ctx).Debugw("Skipping filtered MCP tool", "server", serverName, "tool", tool.Name)
			continue
		}

		description := ""
		if tool.Description != nil {
			description = *tool.Description
		}

		tools = append(tools, domain.DiscoveredTool{
			Name:        tool.Name,
			Description: description,
			InputSchema: tool.InputSchema,
			Category:    server.Category,
		})
	}

	return tools, nil
}

// CallTool invokes a tool and flattens its content into text
func (s *MCPToolServer) CallTool(ctx context.Context, serverName, toolName string, args map[string]any) (*domain.ToolCallResult, error) {
	server, err := s.server(serverName)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(server.GetTimeout(s.config.ConnectionTimeout)) * time.Second
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := s.connect(execCtx, server)
	if err != nil {
		return nil, &domain.ToolError{Server: serverName, Tool: toolName, Err: err}
	}

	response, err := client.CallTool(execCtx, toolName, args)
	if err != nil {
		return &domain.ToolCallResult{
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	return &domain.ToolCallResult{
		Success: true,
		Content: formatContent(response),
	}, nil
}

// formatContent joins the textual parts of an MCP response
func formatContent(response *mcp.ToolResponse) string {
	if response == nil {
		return ""
	}

	var parts []string
	for _, content := range response.Content {
		if content == nil {
			continue
		}

		switch {
		case content.TextContent != nil:
			if content.TextContent.Text != "" {
				parts = append(parts, content.TextContent.Text)
			}
		case content.ImageContent != nil:
			parts = append(parts, "[Image content]")
		case content.EmbeddedResource != nil:
			resource := content.EmbeddedResource
			if resource.TextResourceContents != nil && resource.TextResourceContents.Text != "" {
				parts = append(parts, resource.TextResourceContents.Text)
			} else if resource.BlobResourceContents != nil {
				parts = append(parts, "[Binary resource content]")
			}
		}
	}

	return strings.Join(parts, "\n")
}
