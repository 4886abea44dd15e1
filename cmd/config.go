package cmd

import (
	"fmt"
	"os"

	config "github.com/inference-gateway/toolgate/config"
	services "github.com/inference-gateway/toolgate/internal/services"
	icons "github.com/inference-gateway/toolgate/internal/ui/styles/icons"
	cobra "github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage toolgate configuration",
	Long:  `Create, inspect and edit the toolgate configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new project configuration",
	Long: `Initialize a new .toolgate/config.yaml configuration file in the current directory.
This creates a local project configuration with default settings.`,
	Args: cobra.NoArgs,
	RunE: initConfigFile,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Print the configuration after defaults, the config file and TOOLGATE_* environment variables are merged.`,
	Args:  cobra.NoArgs,
	RunE:  showConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value using dot notation and save it to the config file.

Examples:
  toolgate config set gateway.model openai/gpt-4o
  toolgate config set registry.discovery_cooldown 45
  toolgate config set consent.mode permissive`,
	Args: cobra.ExactArgs(2),
	RunE: setConfigValue,
}

func init() {
	configInitCmd.Flags().Bool("overwrite", false, "Overwrite an existing configuration file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

func initConfigFile(cmd *cobra.Command, args []string) error {
	path := configPath()

	if _, err := os.Stat(path); err == nil {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		if !overwrite {
			return fmt.Errorf("configuration file %s already exists (use --overwrite to replace)", path)
		}
	}

	if err := config.DefaultConfig().SaveConfig(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Successfully created %s\n", icons.StyledCheckMark(), path)
	fmt.Fprintln(out, "Add tool servers with: toolgate mcp add <name> <url>")
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromViper()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return encoder.Close()
}

func setConfigValue(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromViper()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	if V.ConfigFileUsed() == "" {
		V.SetConfigFile(configPath())
	}

	service := services.NewConfigService(V, cfg)
	if err := service.SetValue(args[0], args[1]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", icons.StyledCheckMark(), args[0], args[1])
	return nil
}
