package store

import "database/sql"

// Schema is the complete ledger schema. protocol_checks and alerts are
// append-only; alert_deliveries records per-channel delivery confirmations
// without mutating alert rows; monitor_runs is closed out once per cycle.
const Schema = `
-- One snapshot per protocol per poll. Never updated, never deleted.
CREATE TABLE IF NOT EXISTS protocol_checks (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    protocol_number     TEXT NOT NULL,
    status_text         TEXT NOT NULL DEFAULT '',
    status_date         TEXT NOT NULL DEFAULT '',
    agency              TEXT NOT NULL DEFAULT '',
    subject             TEXT NOT NULL DEFAULT '',
    response_text       TEXT NOT NULL DEFAULT '',
    deflection_type     TEXT,
    deflection_severity TEXT,
    evidence_path       TEXT NOT NULL DEFAULT '',
    evidence_hash       TEXT NOT NULL DEFAULT '',
    content_hash        TEXT NOT NULL DEFAULT '',
    raw_length          INTEGER NOT NULL DEFAULT 0,
    changed             INTEGER NOT NULL DEFAULT 0,
    checked_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_checks_protocol ON protocol_checks(protocol_number, checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_checks_time ON protocol_checks(checked_at);

-- One notification decision. Immutable after insert.
CREATE TABLE IF NOT EXISTS alerts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    protocol_number TEXT NOT NULL,
    alert_type      TEXT NOT NULL,
    severity        TEXT NOT NULL,
    message         TEXT NOT NULL,
    details         TEXT NOT NULL DEFAULT '',
    created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_protocol ON alerts(protocol_number);
CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts(protocol_number, alert_type, created_at);

-- Per-channel delivery confirmations, one row per successful transport.
CREATE TABLE IF NOT EXISTS alert_deliveries (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    alert_id     INTEGER NOT NULL REFERENCES alerts(id),
    channel      TEXT NOT NULL,
    delivered_at INTEGER NOT NULL,
    UNIQUE(alert_id, channel)
);

-- One polling cycle.
CREATE TABLE IF NOT EXISTS monitor_runs (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at        INTEGER NOT NULL,
    completed_at      INTEGER,
    protocols_checked INTEGER NOT NULL DEFAULT 0,
    alerts_generated  INTEGER NOT NULL DEFAULT 0,
    errors            INTEGER NOT NULL DEFAULT 0,
    status            TEXT NOT NULL DEFAULT 'running'
);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
