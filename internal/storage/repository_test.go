package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(user, desc, amount string) core.Record {
	return core.Record{
		UserID:        user,
		Date:          time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC),
		Description:   desc,
		Amount:        decimal.RequireFromString(amount),
		Category:      core.Utilities,
		PaymentMethod: core.CreditCard,
	}
}

func TestSQLiteRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.Ping(ctx))

	a, err := repo.Create(ctx, sample("u1", "Power bill", "-80.25"))
	require.NoError(t, err)
	require.NotEmpty(t, a.ID)
	b, err := repo.Create(ctx, sample("u1", "Refund", "12"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, sample("u2", "Other", "1"))
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("-80.25")))
	assert.True(t, list[0].Date.Equal(a.Date))
	assert.Equal(t, core.CreditCard, list[0].PaymentMethod)

	cat := core.Entertainment
	updated, err := repo.Update(ctx, a.ID, core.Patch{Category: &cat})
	require.NoError(t, err)
	assert.Equal(t, core.Entertainment, updated.Category)
	assert.Equal(t, "Power bill", updated.Description)

	deleted, err := repo.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Refund", deleted.Description)

	list, err = repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, core.Entertainment, list[0].Category)
}

func TestSQLiteMissingRecord(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	desc := "x"
	_, err := repo.Update(ctx, "nope", core.Patch{Description: &desc})
	assert.ErrorIs(t, err, remote.ErrNotFound)
	_, err = repo.Delete(ctx, "nope")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestSQLiteListEmpty(t *testing.T) {
	list, err := newRepo(t).ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSQLiteCreateValidates(t *testing.T) {
	r := sample("u1", "x", "1")
	r.Category = "Nope"
	_, err := newRepo(t).Create(context.Background(), r)
	assert.ErrorIs(t, err, core.ErrInvalidCategory)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)

	added, err := repo.AppendEvent(ctx, Event{ID: "e1", Type: "record.created", RecordID: "r1", UserID: "u1", Amount: "-5", OccurredAt: at})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AppendEvent(ctx, Event{ID: "e1", Type: "record.created", RecordID: "r1", UserID: "u1", Amount: "-5", OccurredAt: at})
	require.NoError(t, err)
	assert.False(t, added, "duplicate delivery is ignored")

	_, err = repo.AppendEvent(ctx, Event{ID: "e2", Type: "record.deleted", RecordID: "r1", UserID: "u1", Amount: "-5", OccurredAt: at.Add(time.Minute)})
	require.NoError(t, err)

	events, err := repo.ListEvents(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].ID)
	assert.Equal(t, "record.created", events[1].Type)
	assert.True(t, events[1].OccurredAt.Equal(at))
	assert.False(t, events[1].ReceivedAt.IsZero())
}
