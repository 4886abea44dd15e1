package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Dialect names the SQL flavour a runner speaks
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Migration is one versioned schema change
type Migration struct {
	Version     string
	Description string
	UpSQL       string
}

// Status reports whether a migration has been applied
type Status struct {
	Version     string
	Description string
	Applied     bool
}

// Runner applies migrations and records them in schema_migrations
type Runner struct {
	db      *sql.DB
	dialect Dialect
}

// NewRunner creates a migration runner for db
func NewRunner(db *sql.DB, dialect Dialect) *Runner {
	return &Runner{db: db, dialect: dialect}
}

// For returns the migration set for dialect
func For(dialect Dialect) ([]Migration, error) {
	switch dialect {
	case DialectSQLite:
		return SQLiteMigrations(), nil
	case DialectPostgres:
		return PostgresMigrations(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	var appliedAt string
	switch r.dialect {
	case DialectSQLite:
		appliedAt = "DATETIME"
	case DialectPostgres:
		appliedAt = "TIMESTAMP WITH TIME ZONE"
	default:
		return fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at `+appliedAt+` NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

func (r *Runner) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (r *Runner) apply(ctx context.Context, migration Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
	}

	record := "INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"
	if r.dialect == DialectPostgres {
		record = "INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)"
	}
	if _, err := tx.ExecContext(ctx, record, migration.Version, migration.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
	}

	return tx.Commit()
}

// Apply runs every pending migration in version order and returns how many ran
func (r *Runner) Apply(ctx context.Context, migrations []Migration) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := r.applied(ctx)
	if err != nil {
		return 0, err
	}

	pending := make([]Migration, len(migrations))
	copy(pending, migrations)
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	count := 0
	for _, migration := range pending {
		if applied[migration.Version] {
			continue
		}
		if err := r.apply(ctx, migration); err != nil {
			return count, fmt.Errorf("migration %s failed: %w", migration.Version, err)
		}
		count++
	}
	return count, nil
}

// Status lists each known migration with its applied flag
func (r *Runner) Status(ctx context.Context, migrations []Migration) ([]Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	status := make([]Status, 0, len(migrations))
	for _, migration := range migrations {
		status = append(status, Status{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     applied[migration.Version],
		})
	}
	sort.Slice(status, func(i, j int) bool { return status[i].Version < status[j].Version })
	return status, nil
}
