package store

import (
	"context"
	"fmt"
)

// Stats returns aggregate ledger counters.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(DISTINCT protocol_number) FROM protocol_checks),
			(SELECT COUNT(*) FROM protocol_checks),
			(SELECT COUNT(*) FROM alerts),
			(SELECT COUNT(*) FROM monitor_runs)
	`).Scan(&st.Protocols, &st.Checks, &st.Alerts, &st.Runs)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}
