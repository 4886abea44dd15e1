package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	config "github.com/inference-gateway/toolgate/config"
	container "github.com/inference-gateway/toolgate/internal/container"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	cobra "github.com/spf13/cobra"
	viper "github.com/spf13/viper"
	gotenv "github.com/subosito/gotenv"
)

// V holds the configuration resolved from file, environment and defaults
var V *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Route natural language requests to MCP tools behind a consent gate",
	Long: `toolgate discovers tools from configured MCP servers, lets a language model
pick one for a request, assesses the risk of the planned call and asks for
consent before anything with side effects is executed.`,
	SilenceUsage: true,
}

func Execute() {
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", fmt.Sprintf("config file (default is %s)", config.DefaultConfigPath))
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	configPath, _ := rootCmd.PersistentFlags().GetString("config")

	v, err := config.NewViper(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	V = v

	cfg, err := getConfigFromViper()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger.Init(verbose, cfg)
}

func getConfigFromViper() (*config.Config, error) {
	if V == nil {
		return nil, errors.New("configuration not initialized")
	}
	return config.FromViper(V)
}

// configPath returns the file the current configuration is bound to
func configPath() string {
	if V != nil && V.ConfigFileUsed() != "" {
		return V.ConfigFileUsed()
	}
	return config.DefaultConfigPath
}

// newServiceContainer builds the container for a command and registers its cleanup
func newServiceContainer(ctx context.Context) (*container.ServiceContainer, error) {
	cfg, err := getConfigFromViper()
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}
	return container.NewServiceContainer(ctx, cfg, version, V)
}

func closeContainer(c *container.ServiceContainer) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close services", "error", err)
	}
}
