package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName     = ".toolgate"
	ConfigFileName    = "config.yaml"
	DefaultConfigPath = ConfigDirName + "/" + ConfigFileName
)

// Config represents the toolgate configuration
type Config struct {
	Gateway      GatewayConfig      `yaml:"gateway" mapstructure:"gateway"`
	Client       ClientConfig       `yaml:"client" mapstructure:"client"`
	MCP          MCPConfig          `yaml:"mcp" mapstructure:"mcp"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Vector       VectorConfig       `yaml:"vector" mapstructure:"vector"`
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	Registry     RegistryConfig     `yaml:"registry" mapstructure:"registry"`
	Execution    ExecutionConfig    `yaml:"execution" mapstructure:"execution"`
	Risk         RiskConfig         `yaml:"risk" mapstructure:"risk"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`
	Consent      ConsentConfig      `yaml:"consent" mapstructure:"consent"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// GatewayConfig contains language model gateway settings
type GatewayConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`
	Timeout int    `yaml:"timeout" mapstructure:"timeout"`
}

// ClientConfig contains HTTP client settings for the gateway
type ClientConfig struct {
	Timeout int         `yaml:"timeout" mapstructure:"timeout"`
	Retry   RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig contains retry logic settings
type RetryConfig struct {
	Enabled              bool  `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts          int   `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffSec    int   `yaml:"initial_backoff_sec" mapstructure:"initial_backoff_sec"`
	MaxBackoffSec        int   `yaml:"max_backoff_sec" mapstructure:"max_backoff_sec"`
	BackoffMultiplier    int   `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	RetryableStatusCodes []int `yaml:"retryable_status_codes" mapstructure:"retryable_status_codes"`
}

// CacheConfig selects and configures the exact key/value cache backend
type CacheConfig struct {
	Type  string           `yaml:"type" mapstructure:"type"`
	Redis RedisCacheConfig `yaml:"redis,omitempty" mapstructure:"redis"`
}

// RedisCacheConfig contains Redis-specific configuration
type RedisCacheConfig struct {
	Host      string `yaml:"host" mapstructure:"host"`
	Port      int    `yaml:"port" mapstructure:"port"`
	Database  int    `yaml:"database" mapstructure:"database"`
	Password  string `yaml:"password,omitempty" mapstructure:"password"`
	Username  string `yaml:"username,omitempty" mapstructure:"username"`
	KeyPrefix string `yaml:"key_prefix,omitempty" mapstructure:"key_prefix"`
}

// VectorConfig selects and configures the vector similarity index backend
type VectorConfig struct {
	Type     string               `yaml:"type" mapstructure:"type"`
	MinScore float64              `yaml:"min_score" mapstructure:"min_score"`
	SQLite   SQLiteVectorConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresVectorConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteVectorConfig contains SQLite-specific configuration
type SQLiteVectorConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresVectorConfig contains Postgres-specific configuration
type PostgresVectorConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	SSLMode  string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// EmbeddingConfig selects the embedder used for semantic tool search
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
}

// RegistryConfig contains tool discovery and circuit breaker settings (seconds)
type RegistryConfig struct {
	DiscoveryCooldown int `yaml:"discovery_cooldown" mapstructure:"discovery_cooldown"`
	DiscoveryTTL      int `yaml:"discovery_ttl" mapstructure:"discovery_ttl"`
	BreakerThreshold  int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerWindow     int `yaml:"breaker_window" mapstructure:"breaker_window"`
	SemanticResults   int `yaml:"semantic_results" mapstructure:"semantic_results"`
}

// ExecutionConfig contains tool execution settings
type ExecutionConfig struct {
	ResultTTL       int      `yaml:"result_ttl" mapstructure:"result_ttl"`
	IdempotentTools []string `yaml:"idempotent_tools" mapstructure:"idempotent_tools"`
}

// RiskConfig contains risk classification policy
type RiskConfig struct {
	SystemBlocks bool `yaml:"system_blocks" mapstructure:"system_blocks"`
}

// OrchestratorConfig contains request pipeline settings
type OrchestratorConfig struct {
	StopWords             []string `yaml:"stop_words" mapstructure:"stop_words"`
	MaxModificationRounds int      `yaml:"max_modification_rounds" mapstructure:"max_modification_rounds"`
	AnalysisTTL           int      `yaml:"analysis_ttl" mapstructure:"analysis_ttl"`
}

// ConsentConfig selects how blocked plans are decided
type ConsentConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Debug bool   `yaml:"debug" mapstructure:"debug"`
	Dir   string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:     "http://localhost:8080",
			APIKey:  "",
			Model:   "",
			Timeout: 200,
		},
		Client: ClientConfig{
			Timeout: 200,
			Retry: RetryConfig{
				Enabled:              true,
				MaxAttempts:          3,
				InitialBackoffSec:    5,
				MaxBackoffSec:        60,
				BackoffMultiplier:    2,
				RetryableStatusCodes: []int{400, 408, 429, 500, 502, 503, 504},
			},
		},
		MCP: *DefaultMCPConfig(),
		Cache: CacheConfig{
			Type: "memory",
			Redis: RedisCacheConfig{
				Host:      "localhost",
				Port:      6379,
				Database:  0,
				KeyPrefix: "toolgate:",
			},
		},
		Vector: VectorConfig{
			Type:     "memory",
			MinScore: 0.2,
			SQLite: SQLiteVectorConfig{
				Path: ConfigDirName + "/vectors.db",
			},
			Postgres: PostgresVectorConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "toolgate",
				Username: "toolgate",
				SSLMode:  "disable",
			},
		},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Model:      "text-embedding-004",
			Dimensions: 256,
		},
		Registry: RegistryConfig{
			DiscoveryCooldown: 30,
			DiscoveryTTL:      300,
			BreakerThreshold:  3,
			BreakerWindow:     60,
			SemanticResults:   10,
		},
		Execution: ExecutionConfig{
			ResultTTL:       3600,
			IdempotentTools: []string{},
		},
		Risk: RiskConfig{
			SystemBlocks: true,
		},
		Orchestrator: OrchestratorConfig{
			StopWords:             []string{"stop", "cancel", "quit", "exit"},
			MaxModificationRounds: 5,
			AnalysisTTL:           3600,
		},
		Consent: ConsentConfig{
			Mode: "terminal",
		},
		Logging: LoggingConfig{
			Debug: false,
			Dir:   "",
		},
	}
}

// Seconds converts a configured number of seconds into a duration,
// substituting fallback for non-positive values
func Seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

// IsIdempotentTool reports whether results of the given tool may be served
// from the result cache. Entries match either "server/tool" or a bare tool name.
func (c *Config) IsIdempotentTool(server, tool string) bool {
	for _, entry := range c.Execution.IdempotentTools {
		entry = strings.TrimSpace(entry)
		if entry == tool || entry == server+"/"+tool {
			return true
		}
	}

	lower := strings.ToLower(tool)
	for _, prefix := range []string{"get_", "list_", "read_", "search_", "find_"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Load reads configuration from path, falling back to defaults when the file does not exist
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to file
func (c *Config) SaveConfig(configPath string) error {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
