package storage

import (
	"context"
	"fmt"
	"time"
)

// Event is one entry of the activity journal.
type Event struct {
	ID         string
	Type       string
	RecordID   string
	UserID     string
	Amount     string
	OccurredAt time.Time
	ReceivedAt time.Time
}

// AppendEvent stores e. Replaying an event id already journaled is a no-op,
// so redelivered messages are harmless. It reports whether a row was added.
func (r *SQLiteRepository) AppendEvent(ctx context.Context, e Event) (bool, error) {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO record_events (event_id, type, record_id, user_id, amount, occurred_at, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT(event_id) DO NOTHING`,
		e.ID, e.Type, e.RecordID, e.UserID, e.Amount,
		e.OccurredAt.UTC().Format(timeLayout), e.ReceivedAt.UTC().Format(timeLayout))
	if err != nil {
		return false, fmt.Errorf("append event %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append event %s: %w", e.ID, err)
	}
	return n > 0, nil
}

// ListEvents returns the user's most recent events, newest first.
func (r *SQLiteRepository) ListEvents(ctx context.Context, userID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, type, record_id, user_id, amount, occurred_at, received_at
		 FROM record_events WHERE user_id = ? ORDER BY seq DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e                  Event
			occurred, received string
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.RecordID, &e.UserID, &e.Amount, &occurred, &received); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if e.OccurredAt, err = time.Parse(timeLayout, occurred); err != nil {
			return nil, fmt.Errorf("event %s occurred_at: %w", e.ID, err)
		}
		if e.ReceivedAt, err = time.Parse(timeLayout, received); err != nil {
			return nil, fmt.Errorf("event %s received_at: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
