// Package store is the append-only check-history ledger for the zeus monitor.
//
// Three persisted record kinds: protocol check snapshots, alerts, and monitor
// runs. Snapshots and alerts are never updated or deleted — the package
// deliberately exposes no mutating operation on them, so the full history can
// be replayed and audited. Delivery confirmations live in their own
// append-only table instead of flags on the alert row, which keeps alert rows
// immutable. Runs are the one exception: a run row is closed out exactly once
// when its cycle ends.
package store

import (
	"database/sql"

	"github.com/kypria/zeus/dbopen"
)

// Store wraps the ledger database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Open opens (creating if needed) the ledger at path and applies the schema.
// The caller must blank-import modernc.org/sqlite.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
