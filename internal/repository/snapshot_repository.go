package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SnapshotRepo stores whole JSON documents keyed by name in the
// ledger_snapshots table.  Every save replaces the full document; there
// are no partial updates.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo returns a SnapshotRepo bound to the provided database.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo { return &SnapshotRepo{db: db} }

const createSnapshots = `CREATE TABLE IF NOT EXISTS ledger_snapshots (
    k          VARCHAR(191) NOT NULL PRIMARY KEY,
    v          LONGTEXT     NOT NULL,
    updated_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the snapshot table when it does not exist yet.
func (r *SnapshotRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSnapshots); err != nil {
		return fmt.Errorf("create ledger_snapshots: %w", err)
	}
	return nil
}

// Load returns the document stored under key, or ErrNotFound.
func (r *SnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, `SELECT v FROM ledger_snapshots WHERE k = ?`, key).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	return doc, nil
}

// Save upserts the whole document under key.
func (r *SnapshotRepo) Save(ctx context.Context, key string, doc []byte) error {
	const q = `INSERT INTO ledger_snapshots (k, v) VALUES (?, ?)
               ON DUPLICATE KEY UPDATE v = VALUES(v)`
	if _, err := r.db.ExecContext(ctx, q, key, doc); err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}
