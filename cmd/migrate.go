package cmd

import (
	"fmt"
	"io"

	storage "github.com/inference-gateway/toolgate/internal/infra/storage"
	migrations "github.com/inference-gateway/toolgate/internal/infra/storage/migrations"
	icons "github.com/inference-gateway/toolgate/internal/ui/styles/icons"
	cobra "github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run vector index migrations",
	Long: `Apply pending migrations to the vector index database.

Migrations are tracked in the schema_migrations table so each one is applied
only once. The SQLite and PostgreSQL backends are migrated when they are opened;
the in-memory backend has no schema.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("status", false, "Show migration status")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromViper()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	store, err := storage.NewVectorStore(cfg.Vector)
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	migratable, ok := store.(storage.Migratable)
	if !ok {
		fmt.Fprintf(out, "%s vector index does not require migrations\n", cfg.Vector.Type)
		return nil
	}

	status, err := migratable.MigrationStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	showStatus, _ := cmd.Flags().GetBool("status")
	if showStatus {
		printMigrationStatus(out, cfg.Vector.Type, status)
		return nil
	}

	fmt.Fprintf(out, "%s %s vector index migrations are up to date\n", icons.StyledCheckMark(), cfg.Vector.Type)
	fmt.Fprintf(out, "   %d migration(s) applied\n", len(status))
	return nil
}

func printMigrationStatus(out io.Writer, backend string, status []migrations.Status) {
	fmt.Fprintf(out, "%s migration status:\n\n", backend)
	for _, s := range status {
		icon, text := icons.StyledCrossMark(), "Pending"
		if s.Applied {
			icon, text = icons.StyledCheckMark(), "Applied"
		}
		fmt.Fprintf(out, "  %s Version %s: %s (%s)\n", icon, s.Version, s.Description, text)
	}
}
