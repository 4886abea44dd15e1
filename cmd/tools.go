package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	styles "github.com/inference-gateway/toolgate/internal/ui/styles"
	icons "github.com/inference-gateway/toolgate/internal/ui/styles/icons"
	indent "github.com/muesli/reflow/indent"
	wordwrap "github.com/muesli/reflow/wordwrap"
	cobra "github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tools discovered from MCP servers",
	Long:  `List, search and refresh the tools discovered from the configured MCP servers.`,
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all discovered tools",
	Long:  `Discover tools from every enabled server (or serve them from the cache) and list them.`,
	Args:  cobra.NoArgs,
	RunE:  listTools,
}

var toolsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search tools by category or capability",
	Long: `Search tools whose name, description, category or capabilities contain the term.
With --semantic the term is matched by meaning against the vector index first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: searchTools,
}

var toolsShowCmd = &cobra.Command{
	Use:   "show <server> <tool>",
	Short: "Show the schema of one tool",
	Args:  cobra.ExactArgs(2),
	RunE:  showTool,
}

var toolsRefreshCmd = &cobra.Command{
	Use:   "refresh <server> <tool>",
	Short: "Re-fetch the schema of one tool",
	Args:  cobra.ExactArgs(2),
	RunE:  refreshTool,
}

var toolsHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show discovery health of every configured server",
	Args:  cobra.NoArgs,
	RunE:  toolsHealth,
}

var toolsResetCmd = &cobra.Command{
	Use:   "reset <server>",
	Short: "Reset the circuit breaker of a server",
	Args:  cobra.ExactArgs(1),
	RunE:  resetServer,
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsSearchCmd)
	toolsCmd.AddCommand(toolsShowCmd)
	toolsCmd.AddCommand(toolsRefreshCmd)
	toolsCmd.AddCommand(toolsHealthCmd)
	toolsCmd.AddCommand(toolsResetCmd)

	toolsListCmd.Flags().String("format", "text", "Output format (text, json)")
	toolsSearchCmd.Flags().Bool("semantic", false, "Match by meaning using the vector index")
	toolsSearchCmd.Flags().String("format", "text", "Output format (text, json)")

	rootCmd.AddCommand(toolsCmd)
}

func listTools(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	format, _ := cmd.Flags().GetString("format")
	return printTools(cmd.OutOrStdout(), services.GetToolRegistry().GetAllTools(cmd.Context()), format)
}

func searchTools(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	term := strings.Join(args, " ")
	semantic, _ := cmd.Flags().GetBool("semantic")
	format, _ := cmd.Flags().GetString("format")

	registry := services.GetToolRegistry()
	var tools []domain.ToolDescriptor
	if semantic {
		tools = registry.FindToolsByCapability(cmd.Context(), term)
	} else {
		tools = registry.FindToolsByCategory(cmd.Context(), term)
	}
	return printTools(cmd.OutOrStdout(), tools, format)
}

const descriptionWidth = 76

func printTools(out io.Writer, tools []domain.ToolDescriptor, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tools)
	}

	if len(tools) == 0 {
		fmt.Fprintln(out, "No tools found.")
		return nil
	}

	theme := styles.NewTheme()
	for _, tool := range tools {
		marker := ""
		if tool.Idempotent {
			marker = theme.Dim.Render(" (cacheable)")
		}
		fmt.Fprintf(out, "%s %s%s\n", theme.Label.Render(tool.Key()), theme.Dim.Render("["+tool.Category+"]"), marker)
		fmt.Fprintln(out, indent.String(wordwrap.String(tool.Description, descriptionWidth), 2))
	}
	fmt.Fprintf(out, "\n%d tool(s)\n", len(tools))
	return nil
}

func showTool(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	server, name := args[0], args[1]
	registry := services.GetToolRegistry()

	tool, ok := registry.GetToolSchema(cmd.Context(), name, server)
	if !ok {
		for _, candidate := range registry.GetAllTools(cmd.Context()) {
			if candidate.Server == server && candidate.Name == name {
				tool, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("tool %s/%s not found", server, name)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(tool)
}

func refreshTool(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	server, name := args[0], args[1]
	if err := services.GetToolRegistry().RefreshToolSchema(cmd.Context(), name, server); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Refreshed %s/%s\n", icons.StyledCheckMark(), server, name)
	return nil
}

func toolsHealth(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	servers := services.GetConfig().MCP.Servers
	if len(servers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No MCP servers configured.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, server := range servers {
		if !server.Enabled {
			fmt.Fprintf(out, "%s %s: disabled\n", icons.StyledWarning(), server.Name)
			continue
		}

		health := services.GetToolRegistry().ServerHealth(cmd.Context(), server.Name)
		if health.ErrorCount == 0 {
			fmt.Fprintf(out, "%s %s: healthy\n", icons.StyledCheckMark(), server.Name)
			continue
		}
		fmt.Fprintf(out, "%s %s: %d recent failure(s), last at %s\n",
			icons.StyledCrossMark(), server.Name, health.ErrorCount, health.LastErrorAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func resetServer(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	if _, ok := services.GetConfig().MCP.FindServer(args[0]); !ok {
		return fmt.Errorf("MCP server %q not found", args[0])
	}
	if err := services.GetToolRegistry().ResetServerHealth(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Reset circuit breaker for %s\n", icons.StyledCheckMark(), args[0])
	return nil
}
