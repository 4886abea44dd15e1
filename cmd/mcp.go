package cmd

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	config "github.com/inference-gateway/toolgate/config"
	services "github.com/inference-gateway/toolgate/internal/services"
	markdown "github.com/inference-gateway/toolgate/internal/ui/markdown"
	icons "github.com/inference-gateway/toolgate/internal/ui/styles/icons"
	cobra "github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP (Model Context Protocol) server configuration",
	Long:  `Manage the MCP servers tools are discovered from. Add, remove, update, and list configured MCP servers.`,
}

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured MCP servers",
	Long:  `Display all configured MCP servers with their status, URL, category and tool filters.`,
	Args:  cobra.NoArgs,
	RunE:  listMCPServers,
}

var mcpAddCmd = &cobra.Command{
	Use:   "add <name> [url]",
	Short: "Add a new MCP server",
	Long: `Add a new MCP server to the configuration.

Examples:
  toolgate mcp add filesystem http://localhost:3000/mcp
  toolgate mcp add slack http://localhost:3001/mcp --category=communication`,
	Args: cobra.RangeArgs(1, 2),
	RunE: addMCPServer,
}

var mcpRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an MCP server",
	Args:  cobra.ExactArgs(1),
	RunE:  removeMCPServer,
}

var mcpUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Update an existing MCP server",
	Long: `Update an existing MCP server configuration.

Example:
  toolgate mcp update filesystem --url=http://localhost:3002/mcp
  toolgate mcp update filesystem --description="Updated description"`,
	Args: cobra.ExactArgs(1),
	RunE: updateMCPServer,
}

var mcpEnableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Enable an MCP server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setMCPServerEnabled(cmd, args[0], true)
	},
}

var mcpDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable an MCP server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setMCPServerEnabled(cmd, args[0], false)
	},
}

func init() {
	mcpCmd.AddCommand(mcpListCmd)
	mcpCmd.AddCommand(mcpAddCmd)
	mcpCmd.AddCommand(mcpRemoveCmd)
	mcpCmd.AddCommand(mcpUpdateCmd)
	mcpCmd.AddCommand(mcpEnableCmd)
	mcpCmd.AddCommand(mcpDisableCmd)

	mcpAddCmd.Flags().String("description", "", "Description of the MCP server")
	mcpAddCmd.Flags().String("category", "", "Category assigned to tools that do not report one")
	mcpAddCmd.Flags().Int("timeout", 0, "Connection timeout in seconds (overrides global)")
	mcpAddCmd.Flags().StringSlice("include", []string{}, "Whitelist specific tools (comma-separated)")
	mcpAddCmd.Flags().StringSlice("exclude", []string{}, "Blacklist specific tools (comma-separated)")
	mcpAddCmd.Flags().Bool("enabled", true, "Enable the server immediately")

	mcpUpdateCmd.Flags().String("url", "", "Update the server URL")
	mcpUpdateCmd.Flags().String("description", "", "Update the description")
	mcpUpdateCmd.Flags().String("category", "", "Update the default tool category")
	mcpUpdateCmd.Flags().Int("timeout", -1, "Update connection timeout (-1 = no change, 0 = use global)")
	mcpUpdateCmd.Flags().StringSlice("include", []string{}, "Update whitelist (empty = no change)")
	mcpUpdateCmd.Flags().StringSlice("exclude", []string{}, "Update blacklist (empty = no change)")

	rootCmd.AddCommand(mcpCmd)
}

func newMCPConfigService() *services.MCPConfigService {
	return services.NewMCPConfigService(configPath())
}

func listMCPServers(cmd *cobra.Command, args []string) error {
	service := newMCPConfigService()

	cfg, err := service.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(cfg.Servers) == 0 {
		fmt.Fprintln(out, "No MCP servers configured.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To add a server: toolgate mcp add <name> <url>")
		return nil
	}

	fmt.Fprintln(out, markdown.NewRenderer(0).Render(mcpServersMarkdown(cfg, service.Path())))
	return nil
}

func mcpServersMarkdown(cfg *config.MCPConfig, path string) string {
	var md strings.Builder
	md.WriteString("**MCP CONFIGURATION**\n\n")
	md.WriteString(fmt.Sprintf("**Connection Timeout:** %ds  \n", cfg.ConnectionTimeout))
	md.WriteString(fmt.Sprintf("**Discovery Timeout:** %ds  \n", cfg.DiscoveryTimeout))
	md.WriteString(fmt.Sprintf("**Config Path:** `%s`\n\n", path))
	md.WriteString(fmt.Sprintf("**Servers:** %d total\n\n", len(cfg.Servers)))

	md.WriteString("| Enabled | Name | URL | Category | Description | Timeout |\n")
	md.WriteString("|---------|------|-----|----------|-------------|---------|\n")

	for _, server := range cfg.Servers {
		status := icons.CheckMark
		if !server.Enabled {
			status = icons.CrossMark
		}

		timeout := "-"
		if server.Timeout > 0 {
			timeout = fmt.Sprintf("%ds", server.Timeout)
		}

		md.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			status, server.Name, server.GetURL(), orDash(server.Category), orDash(server.Description), timeout))
	}
	md.WriteString("\n")

	var filters strings.Builder
	for _, server := range cfg.Servers {
		if len(server.IncludeTools) > 0 {
			filters.WriteString(fmt.Sprintf("**%s** - Include: `%s`  \n", server.Name, strings.Join(server.IncludeTools, ", ")))
		}
		if len(server.ExcludeTools) > 0 {
			filters.WriteString(fmt.Sprintf("**%s** - Exclude: `%s`  \n", server.Name, strings.Join(server.ExcludeTools, ", ")))
		}
	}
	if filters.Len() > 0 {
		md.WriteString("### Tool Filters\n\n")
		md.WriteString(filters.String())
		md.WriteString("\n")
	}

	md.WriteString(fmt.Sprintf("\n%s = enabled, %s = disabled\n", icons.CheckMark, icons.CrossMark))
	return md.String()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func addMCPServer(cmd *cobra.Command, args []string) error {
	name := args[0]

	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	timeout, _ := cmd.Flags().GetInt("timeout")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	enabled, _ := cmd.Flags().GetBool("enabled")

	server := config.MCPServerEntry{
		Name:         name,
		Enabled:      enabled,
		Description:  description,
		Category:     category,
		Timeout:      timeout,
		IncludeTools: include,
		ExcludeTools: exclude,
	}

	if len(args) > 1 {
		applyURL(&server, args[1])
	} else {
		server.Scheme = "http"
		server.Host = "localhost"
		server.Path = "/mcp"
	}

	service := newMCPConfigService()
	if err := service.AddServer(server); err != nil {
		return fmt.Errorf("failed to add MCP server: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s MCP server added: %s\n", icons.StyledCheckMark(), name)
	fmt.Fprintf(out, "  URL: %s\n", server.GetURL())
	if description != "" {
		fmt.Fprintf(out, "  Description: %s\n", description)
	}
	fmt.Fprintf(out, "  Status: %s\n", enabledText(enabled))
	fmt.Fprintf(out, "\nConfiguration saved to %s\n", service.Path())
	return nil
}

func removeMCPServer(cmd *cobra.Command, args []string) error {
	service := newMCPConfigService()
	if err := service.RemoveServer(args[0]); err != nil {
		return fmt.Errorf("failed to remove MCP server: %w", err)
	}

	printSaved(cmd.OutOrStdout(), icons.StyledCheckMark(), "MCP server removed: "+args[0], service.Path())
	return nil
}

func updateMCPServer(cmd *cobra.Command, args []string) error {
	service := newMCPConfigService()

	existing, err := service.GetServer(args[0])
	if err != nil {
		return fmt.Errorf("failed to get MCP server: %w", err)
	}

	if cmd.Flags().Changed("url") {
		rawURL, _ := cmd.Flags().GetString("url")
		applyURL(existing, rawURL)
	}

	if cmd.Flags().Changed("description") {
		existing.Description, _ = cmd.Flags().GetString("description")
	}

	if cmd.Flags().Changed("category") {
		existing.Category, _ = cmd.Flags().GetString("category")
	}

	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetInt("timeout")
		if timeout >= 0 {
			existing.Timeout = timeout
		}
	}

	if cmd.Flags().Changed("include") {
		existing.IncludeTools, _ = cmd.Flags().GetStringSlice("include")
	}

	if cmd.Flags().Changed("exclude") {
		existing.ExcludeTools, _ = cmd.Flags().GetStringSlice("exclude")
	}

	if err := service.UpdateServer(*existing); err != nil {
		return fmt.Errorf("failed to update MCP server: %w", err)
	}

	printSaved(cmd.OutOrStdout(), icons.StyledCheckMark(), "MCP server updated: "+args[0], service.Path())
	return nil
}

func setMCPServerEnabled(cmd *cobra.Command, name string, enabled bool) error {
	service := newMCPConfigService()
	if err := service.SetEnabled(name, enabled); err != nil {
		return fmt.Errorf("failed to %s MCP server: %w", strings.TrimSuffix(enabledText(enabled), "d"), err)
	}

	icon := icons.StyledCheckMark()
	if !enabled {
		icon = icons.StyledCrossMark()
	}
	printSaved(cmd.OutOrStdout(), icon, fmt.Sprintf("MCP server %s: %s", enabledText(enabled), name), service.Path())
	return nil
}

func printSaved(out io.Writer, icon, message, path string) {
	fmt.Fprintf(out, "%s %s\n", icon, message)
	fmt.Fprintf(out, "Configuration saved to %s\n", path)
}

func enabledText(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// applyURL stores the components of rawURL on server, clearing any explicit url
func applyURL(server *config.MCPServerEntry, rawURL string) {
	scheme, host, port, path := parseURL(rawURL)
	server.URL = ""
	server.Scheme = scheme
	server.Host = host
	server.Port = port
	server.Path = path
}

// parseURL parses a URL string into its components (scheme, host, port, path)
func parseURL(rawURL string) (scheme, host string, port int, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "http", "localhost", 8080, "/mcp"
	}

	scheme = u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	host = u.Hostname()
	if host == "" {
		host = "localhost"
	}

	if p, err := strconv.Atoi(u.Port()); err == nil {
		port = p
	}

	path = u.Path
	if path == "" {
		path = "/mcp"
	}

	return scheme, host, port, path
}
