package ledger

import (
	"database/sql"
	"fmt"
	"time"
)

// ensureSchema creates the ledger tables when they do not exist yet. All DDL
// runs in one transaction.
func ensureSchema(db *sql.DB) error {
	var tables int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&tables)
	if err != nil {
		return fmt.Errorf("failed to check ledger schema: %w", err)
	}
	if tables > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	ddl := []struct {
		name string
		stmt string
	}{
		{"runs", createRunsTable},
		{"docs", createDocsTable},
		{"ledger_metadata", createMetadataTable},
	}
	for _, table := range ddl {
		if _, err := tx.Exec(table.stmt); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}
	for i, idx := range ledgerIndexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(
		"INSERT INTO ledger_metadata (key, value, updated_at) VALUES ('schema_version', '1', ?)", now)
	if err != nil {
		return fmt.Errorf("failed to bootstrap ledger_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

const createRunsTable = `
CREATE TABLE runs (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,       -- Monotonic run order
    run_id TEXT NOT NULL UNIQUE,                 -- UUID
    root TEXT NOT NULL,                          -- Source root the run covered
    started_at TEXT NOT NULL,                    -- ISO 8601
    finished_at TEXT,                            -- NULL while the run is open
    files_processed INTEGER NOT NULL DEFAULT 0,
    docs_extracted INTEGER NOT NULL DEFAULT 0,
    files_written INTEGER NOT NULL DEFAULT 0,
    files_skipped INTEGER NOT NULL DEFAULT 0,
    files_rewritten INTEGER NOT NULL DEFAULT 0,
    files_touched INTEGER NOT NULL DEFAULT 0,
    error_count INTEGER NOT NULL DEFAULT 0
)
`

const createDocsTable = `
CREATE TABLE docs (
    doc_id TEXT PRIMARY KEY,                     -- UUID
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,                          -- Absolute markdown path
    source_file TEXT NOT NULL,                   -- Rust file the content came from
    source_line INTEGER NOT NULL,
    kind TEXT NOT NULL,                          -- function, struct, variant, ...
    content_hash TEXT NOT NULL,                  -- SHA-256 of the markdown content
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
)
`

const createMetadataTable = `
CREATE TABLE ledger_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var ledgerIndexes = []string{
	"CREATE INDEX idx_docs_run_id ON docs(run_id)",
	"CREATE INDEX idx_docs_path ON docs(path)",
	"CREATE INDEX idx_docs_source_file ON docs(source_file)",
}
