// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records which Q&A threads have already been imported into
// which knowledge base, so re-runs can skip them. The ledger is a local
// SQLite database; it is never consulted to infer a resume position.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

// DefaultPath is the ledger database used when none is configured.
const DefaultPath = "kb-migrate.db"

// Entry is one imported thread.
type Entry struct {
	KnowledgeBaseID string    `json:"kb_id" yaml:"kb_id"`
	QAID            string    `json:"qa_id" yaml:"qa_id"`
	KnowledgeID     string    `json:"knowledge_id,omitempty" yaml:"knowledge_id,omitempty"`
	ImportedAt      time.Time `json:"imported_at" yaml:"imported_at"`
}

// Ledger wraps the SQLite database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger database and its schema.
func Open(cfg types.LedgerConfig) (*Ledger, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS imported (
			kb_id TEXT NOT NULL,
			qa_id TEXT NOT NULL,
			knowledge_id TEXT,
			imported_at TEXT NOT NULL,
			PRIMARY KEY (kb_id, qa_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imported_at ON imported(kb_id, imported_at)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Has reports whether qaID has been imported into kbID.
func (l *Ledger) Has(ctx context.Context, kbID, qaID string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT count(*) FROM imported WHERE kb_id = ? AND qa_id = ?`, kbID, qaID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying ledger: %w", err)
	}
	return n > 0, nil
}

// Record marks qaID as imported into kbID. Recording the same thread again
// replaces the earlier entry.
func (l *Ledger) Record(ctx context.Context, kbID, qaID, knowledgeID string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO imported (kb_id, qa_id, knowledge_id, imported_at) VALUES (?, ?, ?, ?)`,
		kbID, qaID, knowledgeID, l.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording %s in ledger: %w", qaID, err)
	}
	return nil
}

// List returns the entries for kbID in import order. An empty kbID lists
// every knowledge base.
func (l *Ledger) List(ctx context.Context, kbID string) ([]Entry, error) {
	query, args := scoped(`SELECT kb_id, qa_id, COALESCE(knowledge_id, ''), imported_at FROM imported`, kbID)
	query += ` ORDER BY imported_at, qa_id`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.KnowledgeBaseID, &e.QAID, &e.KnowledgeID, &at); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, at); err == nil {
			e.ImportedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of threads recorded for kbID, or for every
// knowledge base when kbID is empty.
func (l *Ledger) Count(ctx context.Context, kbID string) (int, error) {
	query, args := scoped(`SELECT count(*) FROM imported`, kbID)
	var n int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ledger: %w", err)
	}
	return n, nil
}

// Clear removes the entries for kbID, or every entry when kbID is empty,
// and returns how many were removed.
func (l *Ledger) Clear(ctx context.Context, kbID string) (int64, error) {
	query, args := scoped(`DELETE FROM imported`, kbID)
	res, err := l.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clearing ledger: %w", err)
	}
	return res.RowsAffected()
}

// scoped restricts query to kbID when it is set.
func scoped(query, kbID string) (string, []any) {
	if kbID == "" {
		return query, nil
	}
	return query + ` WHERE kb_id = ?`, []any{kbID}
}
