package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kypria/zeus/dbopen"
)

// InsertRun opens a run row at cycle start and returns its id.
func (s *Store) InsertRun(ctx context.Context, startedAt int64) (int64, error) {
	res, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO monitor_runs (started_at, status) VALUES (?, ?)`,
		startedAt, RunStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert run id: %w", err)
	}
	return id, nil
}

// CompleteRun closes a run with its final counts. Called exactly once per
// cycle; this is the only mutation the ledger permits.
func (s *Store) CompleteRun(ctx context.Context, id int64, completedAt int64, checked, alerts, errCount int) error {
	return s.closeRun(ctx, id, completedAt, checked, alerts, errCount, RunStatusCompleted)
}

// FailRun closes a run as failed, keeping whatever counts were reached before
// the cycle aborted. A run that cannot even be marked failed stays "running"
// with a NULL completed_at, which is itself the incompleteness signal.
func (s *Store) FailRun(ctx context.Context, id int64, completedAt int64, checked, alerts, errCount int) error {
	return s.closeRun(ctx, id, completedAt, checked, alerts, errCount, RunStatusFailed)
}

func (s *Store) closeRun(ctx context.Context, id int64, completedAt int64, checked, alerts, errCount int, status string) error {
	_, err := dbopen.Exec(ctx, s.DB,
		`UPDATE monitor_runs
		SET completed_at = ?, protocols_checked = ?, alerts_generated = ?, errors = ?, status = ?
		WHERE id = ?`,
		completedAt, checked, alerts, errCount, status, id,
	)
	if err != nil {
		return fmt.Errorf("close run: %w", err)
	}
	return nil
}

// GetRun returns a run by id, or nil if it does not exist.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, started_at, completed_at, protocols_checked, alerts_generated, errors, status
		FROM monitor_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ListRuns returns runs newest first. limit <= 0 defaults to 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, started_at, completed_at, protocols_checked, alerts_generated, errors, status
		FROM monitor_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.StartedAt, &r.CompletedAt,
		&r.ProtocolsChecked, &r.AlertsGenerated, &r.Errors, &r.Status); err != nil {
		return nil, err
	}
	return &r, nil
}
