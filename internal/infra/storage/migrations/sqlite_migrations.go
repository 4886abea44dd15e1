package migrations

// SQLiteMigrations returns the vector index schema for SQLite
func SQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "Tool vector index",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS tool_vectors (
					id TEXT PRIMARY KEY,
					embedding BLOB NOT NULL,
					metadata TEXT NOT NULL DEFAULT '{}',
					updated_at DATETIME NOT NULL
				);
			`,
		},
		{
			Version:     "002",
			Description: "Index tool vectors by server",
			UpSQL: `
				ALTER TABLE tool_vectors ADD COLUMN server TEXT NOT NULL DEFAULT '';
				CREATE INDEX IF NOT EXISTS idx_tool_vectors_server ON tool_vectors(server);
			`,
		},
	}
}
