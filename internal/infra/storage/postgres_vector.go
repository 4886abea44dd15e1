package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	migrations "github.com/inference-gateway/toolgate/internal/infra/storage/migrations"
	_ "github.com/lib/pq"
)

var (
	_ domain.VectorStore = (*PostgresVectorStore)(nil)
	_ Migratable         = (*PostgresVectorStore)(nil)
)

// PostgresVectorStore implements domain.VectorStore on a PostgreSQL table
type PostgresVectorStore struct {
	db       *sql.DB
	minScore float64
}

func postgresDSN(cfg config.PostgresVectorConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)
}

// NewPostgresVectorStore connects to PostgreSQL and ensures the schema exists
func NewPostgresVectorStore(cfg config.PostgresVectorConfig, minScore float64) (*PostgresVectorStore, error) {
	db, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("PostgreSQL connection test failed: %w\n\n"+
			"Failed to connect to PostgreSQL. Verify:\n"+
			"  - PostgreSQL server is running at %s:%d\n"+
			"  - Database '%s' exists\n"+
			"  - User '%s' has proper permissions", err, cfg.Host, cfg.Port, cfg.Database, cfg.Username)
	}

	store := &PostgresVectorStore{db: db, minScore: minScore}

	if err := runMigrations(db, migrations.DialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Upsert inserts or replaces the embedding stored under id
func (s *PostgresVectorStore) Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]string) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tool_vectors (id, server, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(id) DO UPDATE SET
			server = EXCLUDED.server,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, id, metadata["server"], encodeEmbedding(embedding), string(metadataJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert vector %s: %w", id, err)
	}
	return nil
}

// Query returns the k nearest rows to embedding
func (s *PostgresVectorStore) Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorMatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, metadata::text FROM tool_vectors`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := scanVectorRows(rows)
	if err != nil {
		return nil, err
	}

	return rankMatches(candidates, embedding, k, s.minScore), nil
}

// Health checks if the database is reachable
func (s *PostgresVectorStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MigrationStatus lists the schema migrations and whether they are applied
func (s *PostgresVectorStore) MigrationStatus(ctx context.Context) ([]migrations.Status, error) {
	return migrationStatus(ctx, s.db, migrations.DialectPostgres)
}

// Close closes the database connection
func (s *PostgresVectorStore) Close() error {
	return s.db.Close()
}
