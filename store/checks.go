package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kypria/zeus/dbopen"
)

// InsertCheck appends one snapshot and returns its monotonically increasing
// id. The row is durable when InsertCheck returns.
func (s *Store) InsertCheck(ctx context.Context, c *ProtocolCheck) (int64, error) {
	res, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO protocol_checks
		(protocol_number, status_text, status_date, agency, subject,
		 response_text, deflection_type, deflection_severity,
		 evidence_path, evidence_hash, content_hash,
		 raw_length, changed, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ProtocolNumber, c.StatusText, c.StatusDate, c.Agency, c.Subject,
		c.ResponseText, c.DeflectionType, c.DeflectionSeverity,
		c.EvidencePath, c.EvidenceHash, c.ContentHash,
		c.RawLength, c.Changed, c.CheckedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert check: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert check id: %w", err)
	}
	c.ID = id
	return id, nil
}

// LatestHash returns the content fingerprint of the most recent snapshot for
// a protocol, or "" if the protocol has never been observed. The "most
// recent" ordering is checked_at descending with id as tie-break, matching
// insertion order for same-millisecond snapshots.
func (s *Store) LatestHash(ctx context.Context, protocol string) (string, error) {
	var hash string
	err := s.DB.QueryRowContext(ctx,
		`SELECT content_hash FROM protocol_checks
		WHERE protocol_number = ?
		ORDER BY checked_at DESC, id DESC LIMIT 1`, protocol).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest hash: %w", err)
	}
	return hash, nil
}

// LatestCheck returns the most recent snapshot for a protocol, or nil if the
// protocol has never been observed.
func (s *Store) LatestCheck(ctx context.Context, protocol string) (*ProtocolCheck, error) {
	row := s.DB.QueryRowContext(ctx,
		checkColumns+`WHERE protocol_number = ?
		ORDER BY checked_at DESC, id DESC LIMIT 1`, protocol)
	c, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// LatestObserved returns the most recent snapshot that carries a content
// fingerprint, or nil if the protocol has no such snapshot. Error snapshots
// have an empty fingerprint and are skipped, so a fetch outage never disturbs
// the change-detection baseline or the deflection non-duplication baseline.
func (s *Store) LatestObserved(ctx context.Context, protocol string) (*ProtocolCheck, error) {
	row := s.DB.QueryRowContext(ctx,
		checkColumns+`WHERE protocol_number = ? AND content_hash != ''
		ORDER BY checked_at DESC, id DESC LIMIT 1`, protocol)
	c, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// History returns a protocol's snapshots in insertion order, oldest first.
// limit <= 0 means no limit.
func (s *Store) History(ctx context.Context, protocol string, limit int) ([]*ProtocolCheck, error) {
	q := checkColumns + `WHERE protocol_number = ? ORDER BY checked_at ASC, id ASC`
	args := []any{protocol}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var result []*ProtocolCheck
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

const checkColumns = `SELECT id, protocol_number, status_text, status_date,
	agency, subject, response_text, deflection_type, deflection_severity,
	evidence_path, evidence_hash, content_hash, raw_length, changed, checked_at
	FROM protocol_checks `

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCheck(row scanner) (*ProtocolCheck, error) {
	var c ProtocolCheck
	if err := row.Scan(&c.ID, &c.ProtocolNumber, &c.StatusText, &c.StatusDate,
		&c.Agency, &c.Subject, &c.ResponseText,
		&c.DeflectionType, &c.DeflectionSeverity,
		&c.EvidencePath, &c.EvidenceHash, &c.ContentHash,
		&c.RawLength, &c.Changed, &c.CheckedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
