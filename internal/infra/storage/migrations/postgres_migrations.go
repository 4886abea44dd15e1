package migrations

// PostgresMigrations returns the vector index schema for PostgreSQL
func PostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "Tool vector index",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS tool_vectors (
					id VARCHAR(512) PRIMARY KEY,
					embedding BYTEA NOT NULL,
					metadata JSONB NOT NULL DEFAULT '{}',
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);
			`,
		},
		{
			Version:     "002",
			Description: "Index tool vectors by server",
			UpSQL: `
				ALTER TABLE tool_vectors ADD COLUMN IF NOT EXISTS server VARCHAR(255) NOT NULL DEFAULT '';
				CREATE INDEX IF NOT EXISTS idx_tool_vectors_server ON tool_vectors(server);
			`,
		},
	}
}
