package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/remote"
	"fintrack/internal/remote/memory"
)

type fakePublisher struct {
	events []*amqp.RecordEvent
	err    error
}

func (f *fakePublisher) PublishRecordEvent(_ context.Context, e *amqp.RecordEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func sample() core.Record {
	return core.Record{
		UserID:        "u1",
		Date:          time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Description:   "Cinema",
		Amount:        decimal.RequireFromString("-12.50"),
		Category:      core.Entertainment,
		PaymentMethod: core.Cash,
	}
}

func TestRecordServicePublishesAfterMutations(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewRecordService(memory.New(), pub, nil)

	created, err := svc.Create(ctx, sample())
	require.NoError(t, err)
	desc := "Movie night"
	_, err = svc.Update(ctx, created.ID, core.Patch{Description: &desc})
	require.NoError(t, err)
	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)

	require.Len(t, pub.events, 3)
	assert.Equal(t, amqp.EventRecordCreated, pub.events[0].Type)
	assert.Equal(t, amqp.EventRecordUpdated, pub.events[1].Type)
	assert.Equal(t, amqp.EventRecordDeleted, pub.events[2].Type)
	for _, e := range pub.events {
		assert.Equal(t, created.ID, e.RecordID)
		assert.Equal(t, "u1", e.UserID)
		assert.Equal(t, "-12.5", e.Amount)
		assert.NoError(t, e.Validate())
	}
}

func TestRecordServiceSkipsEventsOnFailure(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewRecordService(memory.New(), pub, nil)

	_, err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.Empty(t, pub.events)
}

func TestRecordServicePublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrCircuitOpen}
	svc := NewRecordService(memory.New(), pub, nil)

	created, err := svc.Create(context.Background(), sample())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, pub.events, 1)
}

func TestRecordServiceWithoutPublisher(t *testing.T) {
	svc := NewRecordService(memory.New(), nil, nil)
	_, err := svc.Create(context.Background(), sample())
	assert.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestRecordServiceClose(t *testing.T) {
	closed := 0
	ok := closerFunc(func() error { closed++; return nil })
	bad := closerFunc(func() error { closed++; return errors.New("boom") })

	assert.NoError(t, NewRecordService(memory.New(), nil, nil).Close())

	err := NewRecordService(memory.New(), nil, nil, ok, nil, bad).Close()
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 2, closed)
}
