// Package services orchestrates backend mutations and their side effects.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/remote"
)

// Publisher delivers record events; *amqp.Client implements it.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, e *amqp.RecordEvent) error
}

var (
	_ remote.Backend = (*RecordService)(nil)
	_ remote.Pinger  = (*RecordService)(nil)
	_ Publisher      = (*amqp.Client)(nil)
)

// RecordService forwards every operation to a backend and, once the backend
// confirms a mutation, publishes the matching event. A failed publish is
// logged and never fails the operation.
type RecordService struct {
	backend   remote.Backend
	publisher Publisher
	logger    *slog.Logger
	closers   []io.Closer
}

// NewRecordService wraps backend. publisher may be nil, in which case events
// are skipped. closers are released by Close.
func NewRecordService(backend remote.Backend, publisher Publisher, logger *slog.Logger, closers ...io.Closer) *RecordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{backend: backend, publisher: publisher, logger: logger, closers: closers}
}

func (s *RecordService) ListByUser(ctx context.Context, userID string) ([]core.Record, error) {
	return s.backend.ListByUser(ctx, userID)
}

func (s *RecordService) Create(ctx context.Context, r core.Record) (core.Record, error) {
	created, err := s.backend.Create(ctx, r)
	if err != nil {
		return core.Record{}, err
	}
	s.publish(ctx, amqp.EventRecordCreated, created)
	return created, nil
}

func (s *RecordService) Update(ctx context.Context, id string, p core.Patch) (core.Record, error) {
	updated, err := s.backend.Update(ctx, id, p)
	if err != nil {
		return core.Record{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	s.publish(ctx, amqp.EventRecordUpdated, updated)
	return updated, nil
}

func (s *RecordService) Delete(ctx context.Context, id string) (core.Record, error) {
	deleted, err := s.backend.Delete(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	if deleted.ID == "" {
		deleted.ID = id
	}
	s.publish(ctx, amqp.EventRecordDeleted, deleted)
	return deleted, nil
}

// Ping reports the wrapped backend's readiness when it supports it.
func (s *RecordService) Ping(ctx context.Context) error {
	if p, ok := s.backend.(remote.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *RecordService) publish(ctx context.Context, t amqp.EventType, r core.Record) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewRecordEvent(t, r.ID, r.UserID, r.Amount.String())
	if err := s.publisher.PublishRecordEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event",
			"event_type", t, "record_id", r.ID, "error", err)
	}
}

// Close releases the closers passed to NewRecordService.
func (s *RecordService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close record service: %w", err)
	}
	return nil
}
