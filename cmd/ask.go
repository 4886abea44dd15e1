package cmd

import (
	"fmt"
	"strings"

	uuid "github.com/google/uuid"
	logger "github.com/inference-gateway/toolgate/internal/logger"
	markdown "github.com/inference-gateway/toolgate/internal/ui/markdown"
	cobra "github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <request>",
	Short: "Handle one natural language request",
	Long: `Pick a tool for the request, extract its arguments, assess the risk of the
planned call and execute it. Risky calls are presented for approval first.

Examples:
  toolgate ask "show me what is in notes.txt"
  toolgate ask --session team-standup "post the summary to #general"
  toolgate ask --session team-standup stop`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

const replyWidth = 100

func init() {
	askCmd.Flags().StringP("session", "s", "", "Session id used to track and cancel executions (default: a new id)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	request := strings.TrimSpace(strings.Join(args, " "))
	if request == "" {
		return fmt.Errorf("request must not be empty")
	}

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := cmd.Context()
	services, err := newServiceContainer(ctx)
	if err != nil {
		return err
	}
	defer closeContainer(services)

	reply, err := services.GetOrchestrator().ProcessUserRequest(ctx, sessionID, request)
	if err != nil {
		logger.Error("Request failed", "session_id", sessionID, "error", err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), markdown.NewRenderer(replyWidth).Render(reply))
	return nil
}
