package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmko-sec/secdash/internal/audit"
)

// WriteBatch inserts a batch of audit events in one statement.
func (r *Repo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	const numFields = 7
	var sb strings.Builder
	vals := make([]interface{}, 0, len(events)*numFields)

	for i, e := range events {
		p := i * numFields
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7)
		vals = append(vals, e.ID, e.UserID, e.Action, e.Target, e.Detail, e.Status, e.Timestamp)
	}

	query := fmt.Sprintf(
		"INSERT INTO audit_events (id, user_id, action, target, detail, status, timestamp) VALUES %s",
		strings.TrimSuffix(sb.String(), ","),
	)

	if _, err := r.pool.Exec(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: write audit batch: %w", err)
	}
	return nil
}

// FetchEvents returns audit events, newest first, optionally filtered
// by user and action. Empty filter values mean no constraint.
func (r *Repo) FetchEvents(ctx context.Context, userID, action string) ([]audit.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, action, target, detail, status, timestamp
		FROM audit_events
		WHERE ($1 = '' OR user_id = $1)
		  AND ($2 = '' OR action = $2)
		ORDER BY timestamp DESC
		LIMIT 500`, userID, action)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Target, &e.Detail, &e.Status, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan audit event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
