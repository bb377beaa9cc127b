package history

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates the history table.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// payload holds the JSON history record; seq orders entries by insertion.
const schema = `
CREATE TABLE IF NOT EXISTS draw_history (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    tenant_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_draw_history_tenant ON draw_history(tenant_id, seq);
`
