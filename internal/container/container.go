package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	adapters "github.com/inference-gateway/toolgate/internal/infra/adapters"
	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	services "github.com/inference-gateway/toolgate/internal/services"
	sdk "github.com/inference-gateway/sdk"
	viper "github.com/spf13/viper"
)

// ServiceContainer manages all application dependencies
type ServiceContainer struct {
	// Configuration
	viper         *viper.Viper
	config        *config.Config
	configService *services.ConfigService
	version       string

	// Storage
	cache   domain.CacheStore
	vectors domain.VectorStore

	// Adapters
	toolServer *adapters.MCPToolServer
	embedder   domain.Embedder
	model      domain.LanguageModel

	// Services
	registry     *services.ToolRegistry
	tracker      *services.ExecutionTracker
	risks        *services.RiskAssessor
	consent      domain.ConsentChannel
	orchestrator *services.Orchestrator
}

// NewServiceContainer creates a new service container with all dependencies.
// v may be nil when configuration edits are not needed.
func NewServiceContainer(ctx context.Context, cfg *config.Config, version string, v *viper.Viper) (*ServiceContainer, error) {
	if cfg == nil {
		return nil, errors.New("service container: config is nil")
	}

	container := &ServiceContainer{
		config:  cfg,
		version: version,
	}

	if v != nil {
		container.viper = v
		container.configService = services.NewConfigService(v, cfg)
	}

	if err := container.initializeStorage(); err != nil {
		return nil, err
	}
	if err := container.initializeAdapters(ctx); err != nil {
		_ = container.Close()
		return nil, err
	}
	if err := container.initializeServices(); err != nil {
		_ = container.Close()
		return nil, err
	}

	return container, nil
}

// initializeStorage opens the shared cache and the vector index
func (c *ServiceContainer) initializeStorage() error {
	cache, err := storage.NewCacheStore(c.config.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	c.cache = cache

	vectors, err := storage.NewVectorStore(c.config.Vector)
	if err != nil {
		_ = cache.Close()
		return fmt.Errorf("failed to create vector store: %w", err)
	}
	c.vectors = vectors

	logger.Debug("Storage initialized", "cache", c.config.Cache.Type, "vector", c.config.Vector.Type)
	return nil
}

// initializeAdapters creates the tool server client, the embedder and the
// memoized language model
func (c *ServiceContainer) initializeAdapters(ctx context.Context) error {
	c.toolServer = adapters.NewMCPToolServer(&c.config.MCP, c.version)

	embedder, err := c.createEmbedder(ctx)
	if err != nil {
		return err
	}
	c.embedder = embedder

	model := adapters.NewSDKLanguageModel(c.createSDKClient(), c.config.Gateway.Model)
	c.model = services.NewMemoizer(model, c.cache,
		config.Seconds(c.config.Orchestrator.AnalysisTTL, time.Hour))
	return nil
}

func (c *ServiceContainer) createEmbedder(ctx context.Context) (domain.Embedder, error) {
	switch strings.ToLower(c.config.Embedding.Provider) {
	case "", "hash":
		return adapters.NewHashEmbedder(c.config.Embedding.Dimensions), nil
	case "gemini", "google":
		apiKey := c.config.Embedding.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		embedder, err := adapters.NewGeminiEmbedder(ctx, apiKey, c.config.Embedding.Model, c.config.Embedding.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return embedder, nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", c.config.Embedding.Provider)
	}
}

// initializeServices wires registry, tracker, risk gate and orchestrator
func (c *ServiceContainer) initializeServices() error {
	c.registry = services.NewToolRegistry(c.toolServer, c.cache, c.vectors, c.embedder, c.config)
	c.tracker = services.NewExecutionTracker(c.toolServer, c.cache, c.config)
	c.risks = services.NewRiskAssessor(c.model, c.config)

	consent, err := services.NewConsentChannel(c.config.Consent.Mode, os.Stdin, os.Stdout)
	if err != nil {
		return err
	}
	c.consent = consent

	c.orchestrator = services.NewOrchestrator(
		c.registry,
		c.tracker,
		c.risks,
		c.consent,
		c.model,
		c.cache,
		c.config,
	)
	return nil
}

func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

// GetViper returns the Viper instance
func (c *ServiceContainer) GetViper() *viper.Viper {
	return c.viper
}

// GetConfigService returns the config service
func (c *ServiceContainer) GetConfigService() *services.ConfigService {
	return c.configService
}

func (c *ServiceContainer) GetCache() domain.CacheStore {
	return c.cache
}

func (c *ServiceContainer) GetToolRegistry() *services.ToolRegistry {
	return c.registry
}

func (c *ServiceContainer) GetExecutionTracker() *services.ExecutionTracker {
	return c.tracker
}

func (c *ServiceContainer) GetOrchestrator() *services.Orchestrator {
	return c.orchestrator
}

// Close releases the cache and vector store connections
func (c *ServiceContainer) Close() error {
	var errs []error
	if c.vectors != nil {
		if err := c.vectors.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close vector store: %w", err))
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// createRetryConfig creates a retry config with logging callback
func (c *ServiceContainer) createRetryConfig() *sdk.RetryConfig {
	retryConfig := &sdk.RetryConfig{
		Enabled:              c.config.Client.Retry.Enabled,
		MaxAttempts:          c.config.Client.Retry.MaxAttempts,
		InitialBackoffSec:    c.config.Client.Retry.InitialBackoffSec,
		MaxBackoffSec:        c.config.Client.Retry.MaxBackoffSec,
		BackoffMultiplier:    c.config.Client.Retry.BackoffMultiplier,
		RetryableStatusCodes: c.config.Client.Retry.RetryableStatusCodes,
	}

	if retryConfig.Enabled {
		retryConfig.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Warn("Retrying gateway request",
				"attempt", attempt,
				"error", err.Error(),
				"delay", delay.String())
		}
	}

	return retryConfig
}

// createSDKClient creates a configured SDK client with retry and timeout settings
func (c *ServiceContainer) createSDKClient() sdk.Client {
	baseURL := c.config.Gateway.URL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL = strings.TrimSuffix(baseURL, "/") + "/v1"
	}

	timeout := c.config.Client.Timeout
	if timeout == 0 {
		timeout = 200
	}

	return sdk.NewClient(&sdk.ClientOptions{
		BaseURL:     baseURL,
		APIKey:      c.config.Gateway.APIKey,
		Timeout:     time.Duration(timeout) * time.Second,
		RetryConfig: c.createRetryConfig(),
	})
}
