package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	config "github.com/inference-gateway/toolgate/config"
	domain "github.com/inference-gateway/toolgate/internal/domain"
	migrations "github.com/inference-gateway/toolgate/internal/infra/storage/migrations"
	_ "modernc.org/sqlite"
)

var (
	_ domain.VectorStore = (*SQLiteVectorStore)(nil)
	_ Migratable         = (*SQLiteVectorStore)(nil)
)

// SQLiteVectorStore implements domain.VectorStore on a SQLite table.
// Similarity is computed in process over all rows, which is fine for
// tool catalogs of a few thousand entries.
type SQLiteVectorStore struct {
	db       *sql.DB
	path     string
	minScore float64
}

// NewSQLiteVectorStore opens (creating if needed) the SQLite vector index
func NewSQLiteVectorStore(cfg config.SQLiteVectorConfig, minScore float64) (*SQLiteVectorStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteVectorStore{
		db:       db,
		path:     cfg.Path,
		minScore: minScore,
	}

	if err := runMigrations(db, migrations.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Upsert inserts or replaces the embedding stored under id
func (s *SQLiteVectorStore) Upsert(ctx context.Context, id string, embedding []float32, metadata map[string]string) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tool_vectors (id, server, embedding, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			server = excluded.server,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, id, metadata["server"], encodeEmbedding(embedding), string(metadataJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert vector %s: %w", id, err)
	}
	return nil
}

// Query returns the k nearest rows to embedding
func (s *SQLiteVectorStore) Query(ctx context.Context, embedding []float32, k int) ([]domain.VectorMatch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, metadata FROM tool_vectors`)
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
func (s *SQLiteVectorStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MigrationStatus lists the schema migrations and whether they are applied
func (s *SQLiteVectorStore) MigrationStatus(ctx context.Context) ([]migrations.Status, error) {
	return migrationStatus(ctx, s.db, migrations.DialectSQLite)
}

// Close closes the database
func (s *SQLiteVectorStore) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB, dialect migrations.Dialect) error {
	set, err := migrations.For(dialect)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := migrations.NewRunner(db, dialect).Apply(ctx, set); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func migrationStatus(ctx context.Context, db *sql.DB, dialect migrations.Dialect) ([]migrations.Status, error) {
	set, err := migrations.For(dialect)
	if err != nil {
		return nil, err
	}
	return migrations.NewRunner(db, dialect).Status(ctx, set)
}

// scanVectorRows decodes (id, embedding, metadata) rows shared by the SQL backends
func scanVectorRows(rows *sql.Rows) ([]vectorRow, error) {
	var result []vectorRow
	for rows.Next() {
		var (
			id           string
			blob         []byte
			metadataJSON string
		)
		if err := rows.Scan(&id, &blob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}

		embedding, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("vector %s: %w", id, err)
		}

		metadata := map[string]string{}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", id, err)
			}
		}

		result = append(result, vectorRow{id: id, embedding: embedding, metadata: metadata})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vector rows: %w", err)
	}
	return result, nil
}
