package config

import (
	"fmt"
	"slices"
)

// MCPConfig holds the tool servers reachable over the Model Context Protocol
type MCPConfig struct {
	ConnectionTimeout int              `yaml:"connection_timeout,omitempty" mapstructure:"connection_timeout"`
	DiscoveryTimeout  int              `yaml:"discovery_timeout,omitempty" mapstructure:"discovery_timeout"`
	Servers           []MCPServerEntry `yaml:"servers" mapstructure:"servers"`
}

// MCPServerEntry represents a single MCP server configuration
type MCPServerEntry struct {
	Name         string   `yaml:"name" mapstructure:"name"`
	URL          string   `yaml:"url,omitempty" mapstructure:"url"`
	Enabled      bool     `yaml:"enabled" mapstructure:"enabled"`
	Timeout      int      `yaml:"timeout,omitempty" mapstructure:"timeout"`
	Description  string   `yaml:"description,omitempty" mapstructure:"description"`
	Category     string   `yaml:"category,omitempty" mapstructure:"category"`
	IncludeTools []string `yaml:"include_tools,omitempty" mapstructure:"include_tools"`
	ExcludeTools []string `yaml:"exclude_tools,omitempty" mapstructure:"exclude_tools"`
	Scheme       string   `yaml:"scheme,omitempty" mapstructure:"scheme"`
	Host         string   `yaml:"host,omitempty" mapstructure:"host"`
	Port         int      `yaml:"port,omitempty" mapstructure:"port"`
	Path         string   `yaml:"path,omitempty" mapstructure:"path"`
}

// ShouldIncludeTool determines if a tool should be included based on include/exclude lists
func (e *MCPServerEntry) ShouldIncludeTool(toolName string) bool {
	if len(e.IncludeTools) > 0 {
		return slices.Contains(e.IncludeTools, toolName)
	}

	return !slices.Contains(e.ExcludeTools, toolName)
}

// GetTimeout returns the effective timeout for this server
func (e *MCPServerEntry) GetTimeout(globalTimeout int) int {
	if e.Timeout > 0 {
		return e.Timeout
	}
	if globalTimeout > 0 {
		return globalTimeout
	}
	return 30
}

// GetURL returns the base address of the server.
// An explicit url wins; otherwise it is built from scheme, host, port and path.
func (e *MCPServerEntry) GetURL() string {
	if e.URL != "" {
		return e.URL
	}

	scheme := e.Scheme
	if scheme == "" {
		scheme = "http"
	}

	host := e.Host
	if host == "" {
		host = "localhost"
	}

	path := e.Path
	if path == "" {
		path = "/mcp"
	}

	if e.Port > 0 {
		return fmt.Sprintf("%s://%s:%d%s", scheme, host, e.Port, path)
	}

	return fmt.Sprintf("%s://%s%s", scheme, host, path)
}

// EnabledServers returns the servers that take part in discovery
func (c *MCPConfig) EnabledServers() []MCPServerEntry {
	servers := make([]MCPServerEntry, 0, len(c.Servers))
	for _, server := range c.Servers {
		if server.Enabled {
			servers = append(servers, server)
		}
	}
	return servers
}

// FindServer looks up a configured server by name
func (c *MCPConfig) FindServer(name string) (MCPServerEntry, bool) {
	for _, server := range c.Servers {
		if server.Name == name {
			return server, true
		}
	}
	return MCPServerEntry{}, false
}

// DefaultMCPConfig returns a default MCP configuration
func DefaultMCPConfig() *MCPConfig {
	return &MCPConfig{
		ConnectionTimeout: 30,
		DiscoveryTimeout:  30,
		Servers:           []MCPServerEntry{},
	}
}
