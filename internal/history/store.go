// Package history persists finished draws in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"raffle/internal/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MaxEntries is how many draws are kept per tenant; older ones are evicted.
const MaxEntries = 50

var ErrNotFound = errors.New("history entry not found")

// Store is the SQLite-backed history database shared by all tenants.
type Store struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// Open opens (or creates) the history database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, limit: MaxEntries, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tenant returns the history of one tenant.
func (s *Store) Tenant(tenantID string) *TenantStore {
	return &TenantStore{store: s, tenantID: tenantID}
}

// TenantStore is one tenant's view of the history, most recent first.
type TenantStore struct {
	store    *Store
	tenantID string
}

// Append stores entry, assigning an id and date when missing, and evicts
// entries beyond the cap. It returns the entry id.
func (t *TenantStore) Append(ctx context.Context, entry models.HistoryEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = t.store.now().UTC().Format(time.RFC3339Nano)
	}
	if entry.EventName == "" {
		entry.EventName = models.DefaultEventName
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("encode history entry: %w", err)
	}

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin history append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO draw_history (id, tenant_id, created_at, payload) VALUES (?, ?, ?, ?)`,
		entry.ID, t.tenantID, t.store.now().UTC().UnixMilli(), string(payload),
	); err != nil {
		return "", fmt.Errorf("insert history entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM draw_history
		 WHERE tenant_id = ?
		   AND seq NOT IN (
		     SELECT seq FROM draw_history WHERE tenant_id = ? ORDER BY seq DESC LIMIT ?
		   )`,
		t.tenantID, t.tenantID, t.store.limit,
	); err != nil {
		return "", fmt.Errorf("evict history entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit history append: %w", err)
	}
	return entry.ID, nil
}

// List returns the tenant's entries, newest first.
func (t *TenantStore) List(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := t.store.db.QueryContext(ctx,
		`SELECT payload FROM draw_history WHERE tenant_id = ? ORDER BY seq DESC`,
		t.tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Remove deletes one entry.
func (t *TenantStore) Remove(ctx context.Context, id string) error {
	res, err := t.store.db.ExecContext(ctx,
		`DELETE FROM draw_history WHERE tenant_id = ? AND id = ?`,
		t.tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("remove history entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every entry of the tenant.
func (t *TenantStore) Clear(ctx context.Context) error {
	if _, err := t.store.db.ExecContext(ctx,
		`DELETE FROM draw_history WHERE tenant_id = ?`,
		t.tenantID,
	); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
