// Package worker turns record events from the broker into activity journal
// entries.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

// EventAppender is the journal the worker writes to.
type EventAppender interface {
	AppendEvent(ctx context.Context, e storage.Event) (bool, error)
}

type JournalWorker struct {
	journal EventAppender
	logger  *slog.Logger
	now     func() time.Time
}

func NewJournalWorker(journal EventAppender, logger *slog.Logger) *JournalWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalWorker{journal: journal, logger: logger, now: time.Now}
}

// HandleRecordEvent journals one event. A returned error makes the consumer
// requeue the message; duplicates are acknowledged without a new row.
func (w *JournalWorker) HandleRecordEvent(ctx context.Context, e *amqp.RecordEvent) error {
	added, err := w.journal.AppendEvent(ctx, storage.Event{
		ID:         e.ID,
		Type:       string(e.Type),
		RecordID:   e.RecordID,
		UserID:     e.UserID,
		Amount:     e.Amount,
		OccurredAt: e.Timestamp,
		ReceivedAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("journal event %s: %w", e.ID, err)
	}
	if !added {
		w.logger.DebugContext(ctx, "Duplicate record event ignored", "event_id", e.ID, "event_type", e.Type)
		return nil
	}
	w.logger.InfoContext(ctx, "Record event journaled",
		"event_id", e.ID,
		"event_type", e.Type,
		"record_id", e.RecordID,
		"user_id", e.UserID,
		"lag_ms", w.now().Sub(e.Timestamp).Milliseconds())
	return nil
}
