package services

import (
	"fmt"
	"strings"

	config "github.com/inference-gateway/toolgate/config"
	logger "github.com/inference-gateway/toolgate/internal/logger"
)

// MCPConfigService edits the mcp section of a configuration file and leaves
// every other section untouched
type MCPConfigService struct {
	configPath string
}

// NewMCPConfigService creates a new MCP config service
func NewMCPConfigService(configPath string) *MCPConfigService {
	return &MCPConfigService{
		configPath: configPath,
	}
}

// Path returns the file the service reads and writes
func (s *MCPConfigService) Path() string {
	return s.configPath
}

func (s *MCPConfigService) load() (*config.Config, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load MCP config: %w", err)
	}
	return cfg, nil
}

// Load loads the MCP configuration, returning defaults when the file does not exist
func (s *MCPConfigService) Load() (*config.MCPConfig, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	return &cfg.MCP, nil
}

func (s *MCPConfigService) update(mutate func(mcp *config.MCPConfig) error) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}

	if err := mutate(&cfg.MCP); err != nil {
		return err
	}

	if err := cfg.SaveConfig(s.configPath); err != nil {
		return fmt.Errorf("failed to save MCP config: %w", err)
	}

	logger.Info("MCP config saved", "path", s.configPath)
	return nil
}

// AddServer adds a new MCP server to the configuration
func (s *MCPConfigService) AddServer(server config.MCPServerEntry) error {
	if strings.TrimSpace(server.Name) == "" {
		return fmt.Errorf("MCP server name must not be empty")
	}
	if strings.Contains(server.Name, "/") {
		return fmt.Errorf("MCP server name '%s' must not contain '/'", server.Name)
	}

	return s.update(func(mcp *config.MCPConfig) error {
		if _, ok := mcp.FindServer(server.Name); ok {
			return fmt.Errorf("MCP server with name '%s' already exists", server.Name)
		}
		mcp.Servers = append(mcp.Servers, server)
		return nil
	})
}

// UpdateServer replaces an existing MCP server in the configuration
func (s *MCPConfigService) UpdateServer(server config.MCPServerEntry) error {
	return s.update(func(mcp *config.MCPConfig) error {
		for i, existing := range mcp.Servers {
			if existing.Name == server.Name {
				mcp.Servers[i] = server
				return nil
			}
		}
		return fmt.Errorf("MCP server with name '%s' not found", server.Name)
	})
}

// SetEnabled toggles whether a server takes part in discovery
func (s *MCPConfigService) SetEnabled(name string, enabled bool) error {
	return s.update(func(mcp *config.MCPConfig) error {
		for i, existing := range mcp.Servers {
			if existing.Name == name {
				mcp.Servers[i].Enabled = enabled
				return nil
			}
		}
		return fmt.Errorf("MCP server with name '%s' not found", name)
	})
}

// RemoveServer removes an MCP server by name
func (s *MCPConfigService) RemoveServer(name string) error {
	return s.update(func(mcp *config.MCPConfig) error {
		servers := make([]config.MCPServerEntry, 0, len(mcp.Servers))
		for _, server := range mcp.Servers {
			if server.Name != name {
				servers = append(servers, server)
			}
		}
		if len(servers) == len(mcp.Servers) {
			return fmt.Errorf("MCP server with name '%s' not found", name)
		}
		mcp.Servers = servers
		return nil
	})
}

// GetServer returns a specific MCP server by name
func (s *MCPConfigService) GetServer(name string) (*config.MCPServerEntry, error) {
	mcp, err := s.Load()
	if err != nil {
		return nil, err
	}

	server, ok := mcp.FindServer(name)
	if !ok {
		return nil, fmt.Errorf("MCP server with name '%s' not found", name)
	}
	return &server, nil
}
