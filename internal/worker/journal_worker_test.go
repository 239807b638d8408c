package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

type fakeJournal struct {
	events []storage.Event
	seen   map[string]bool
	err    error
}

func (f *fakeJournal) AppendEvent(_ context.Context, e storage.Event) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[e.ID] {
		return false, nil
	}
	f.seen[e.ID] = true
	f.events = append(f.events, e)
	return true, nil
}

func TestHandleRecordEvent(t *testing.T) {
	j := &fakeJournal{}
	w := NewJournalWorker(j, nil)
	received := time.Date(2025, 3, 1, 12, 0, 1, 0, time.UTC)
	w.now = func() time.Time { return received }

	e := amqp.NewRecordEvent(amqp.EventRecordCreated, "r1", "u1", "-30.00")
	require.NoError(t, w.HandleRecordEvent(context.Background(), e))
	require.NoError(t, w.HandleRecordEvent(context.Background(), e), "redelivery is acknowledged")

	require.Len(t, j.events, 1)
	got := j.events[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "record.created", got.Type)
	assert.Equal(t, "r1", got.RecordID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "-30.00", got.Amount)
	assert.Equal(t, received, got.ReceivedAt)
}

func TestHandleRecordEventJournalFailure(t *testing.T) {
	boom := errors.New("disk full")
	w := NewJournalWorker(&fakeJournal{err: boom}, nil)
	err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEvent(amqp.EventRecordDeleted, "r1", "u1", "5.00"))
	assert.ErrorIs(t, err, boom)
}

func TestHandleRecordEventWithSQLite(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "journal.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	w := NewJournalWorker(repo, nil)
	e := amqp.NewRecordEvent(amqp.EventRecordUpdated, "r7", "u2", "12.50")
	require.NoError(t, w.HandleRecordEvent(context.Background(), e))
	require.NoError(t, w.HandleRecordEvent(context.Background(), e))

	events, err := repo.ListEvents(context.Background(), "u2", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "record.updated", events[0].Type)
}
