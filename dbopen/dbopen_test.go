package dbopen

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpen_AppliesPragmas(t *testing.T) {
	// WHAT: Open returns a database with WAL and foreign keys active.
	// WHY: The ledger relies on WAL for reader/writer isolation.
	db, err := Open(filepath.Join(t.TempDir(), "zeus.db"), WithMkdirAll())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpen_WithSchema(t *testing.T) {
	// WHAT: Inline schema runs after pragmas.
	db := OpenMemory(t, WithSchema(`CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)`))
	if _, err := db.Exec(`INSERT INTO things (name) VALUES ('x')`); err != nil {
		t.Fatalf("insert into schema table: %v", err)
	}
}

func TestOpen_MkdirAll(t *testing.T) {
	// WHAT: WithMkdirAll creates missing parent directories.
	path := filepath.Join(t.TempDir(), "a", "b", "zeus.db")
	db, err := Open(path, WithMkdirAll())
	if err != nil {
		t.Fatalf("Open with nested dirs: %v", err)
	}
	db.Close()
}

func TestIsBusy(t *testing.T) {
	// WHAT: Busy detection matches the messages modernc/sqlite emits.
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{errors.New("database table is locked"), true},
		{errors.New("no such table: x"), false},
	}
	for _, tc := range cases {
		if got := IsBusy(tc.err); got != tc.want {
			t.Errorf("IsBusy(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestExec_PassesThrough(t *testing.T) {
	// WHAT: Exec behaves like ExecContext for non-busy errors and successes.
	db := OpenMemory(t, WithSchema(`CREATE TABLE t (v INTEGER)`))
	if _, err := Exec(context.Background(), db, `INSERT INTO t (v) VALUES (1)`); err != nil {
		t.Fatalf("Exec insert: %v", err)
	}
	if _, err := Exec(context.Background(), db, `INSERT INTO missing (v) VALUES (1)`); err == nil {
		t.Fatal("expected error for missing table")
	}
}
