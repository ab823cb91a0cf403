package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kypria/zeus/dbopen"
)

// InsertAlert appends one alert and returns its id. Persistence happens
// before any transport attempt, so a failed webhook never loses the record.
func (s *Store) InsertAlert(ctx context.Context, a *Alert) (int64, error) {
	res, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO alerts (protocol_number, alert_type, severity, message, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ProtocolNumber, a.AlertType, a.Severity, a.Message, a.Details, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert alert id: %w", err)
	}
	a.ID = id
	return id, nil
}

// MarkDelivered records a successful delivery of an alert on a channel.
// Idempotent: a repeated confirmation for the same (alert, channel) is a no-op.
func (s *Store) MarkDelivered(ctx context.Context, alertID int64, channel string) error {
	_, err := dbopen.Exec(ctx, s.DB,
		`INSERT OR IGNORE INTO alert_deliveries (alert_id, channel, delivered_at)
		VALUES (?, ?, ?)`,
		alertID, channel, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// Deliveries returns the channels an alert was confirmed delivered on.
func (s *Store) Deliveries(ctx context.Context, alertID int64) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT channel FROM alert_deliveries WHERE alert_id = ? ORDER BY delivered_at ASC`,
		alertID)
	if err != nil {
		return nil, fmt.Errorf("deliveries: %w", err)
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// ListAlerts returns alerts newest first. protocol "" means all protocols.
// limit <= 0 defaults to 50.
func (s *Store) ListAlerts(ctx context.Context, protocol string, limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, protocol_number, alert_type, severity, message, details, created_at
		FROM alerts `
	args := []any{}
	if protocol != "" {
		q += `WHERE protocol_number = ? `
		args = append(args, protocol)
	}
	q += `ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var result []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.ProtocolNumber, &a.AlertType, &a.Severity,
			&a.Message, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}

// HasDeadlineAlert reports whether a deadline_missed alert exists for the
// protocol at or after the given time. Used by the once-per-deadline guard.
func (s *Store) HasDeadlineAlert(ctx context.Context, protocol string, since int64) (bool, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts
		WHERE protocol_number = ? AND alert_type = ? AND created_at >= ?`,
		protocol, AlertDeadlineMissed, since).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has deadline alert: %w", err)
	}
	return n > 0, nil
}
