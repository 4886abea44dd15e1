package cmd

import (
	"encoding/json"
	"fmt"

	uuid "github.com/google/uuid"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	icons "github.com/inference-gateway/toolgate/internal/ui/styles/icons"
	cobra "github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run and track tool executions",
	Long: `Run a tool directly through the risk and consent gate, and inspect or cancel
executions. Execution records live in the configured cache, so status and
cancel reach other processes only with a shared cache such as redis.`,
}

var execRunCmd = &cobra.Command{
	Use:   "run <server> <tool>",
	Short: "Execute a tool with explicit parameters",
	Long: `Execute a discovered tool with the given JSON parameters. The plan is
assessed and, when blocked, presented for consent before it runs.

Example:
  toolgate exec run files read_file --params '{"path":"notes.txt"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runExecution,
}

var execStatusCmd = &cobra.Command{
	Use:   "status <execution-id>",
	Short: "Show the status of an execution",
	Args:  cobra.ExactArgs(1),
	RunE:  executionStatus,
}

var execCancelCmd = &cobra.Command{
	Use:   "cancel <execution-id>",
	Short: "Cancel an execution",
	Args:  cobra.ExactArgs(1),
	RunE:  cancelExecution,
}

func init() {
	execRunCmd.Flags().String("params", "{}", "Tool parameters as a JSON object")
	execRunCmd.Flags().StringP("session", "s", "", "Session id used to track the execution (default: a new id)")

	execCmd.AddCommand(execRunCmd)
	execCmd.AddCommand(execStatusCmd)
	execCmd.AddCommand(execCancelCmd)

	rootCmd.AddCommand(execCmd)
}

func parseParams(raw string) (map[string]any, error) {
	params := map[string]any{}
	if raw == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("invalid --params: %w", err)
	}
	return params, nil
}

func findTool(tools []domain.ToolDescriptor, server, name string) (domain.ToolDescriptor, bool) {
	for _, tool := range tools {
		if tool.Server == server && tool.Name == name {
			return tool, true
		}
	}
	return domain.ToolDescriptor{}, false
}

func runExecution(cmd *cobra.Command, args []string) error {
	rawParams, _ := cmd.Flags().GetString("params")
	params, err := parseParams(rawParams)
	if err != nil {
		return err
	}

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := logger.WithRequest(cmd.Context(), sessionID, uuid.NewString())
	services, err := newServiceContainer(ctx)
	if err != nil {
		return err
	}
	defer closeContainer(services)

	tool, ok := findTool(services.GetToolRegistry().GetAllTools(ctx), args[0], args[1])
	if !ok {
		return fmt.Errorf("tool %s/%s not found", args[0], args[1])
	}

	request := fmt.Sprintf("Run %s with %s", tool.Key(), rawParams)
	reply, err := services.GetOrchestrator().ExecuteDynamicFlow(ctx, sessionID, tool, params, request)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, reply)
	if executionID, found := services.GetOrchestrator().SessionExecution(ctx, sessionID); found {
		fmt.Fprintf(out, "\nexecution: %s\n", executionID)
	}
	return nil
}

func executionStatus(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	record := services.GetExecutionTracker().GetExecutionStatus(cmd.Context(), args[0])

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(record)
}

func cancelExecution(cmd *cobra.Command, args []string) error {
	services, err := newServiceContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeContainer(services)

	tracker := services.GetExecutionTracker()
	if err := tracker.CancelExecution(cmd.Context(), args[0]); err != nil {
		return err
	}

	record := tracker.GetExecutionStatus(cmd.Context(), args[0])
	icon := icons.StyledCheckMark()
	if record.Status != domain.ExecutionStatusCancelled {
		icon = icons.StyledWarning()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", icon, args[0], record.Status)
	return nil
}
