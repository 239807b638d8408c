// Package store keeps the signed-in user's records in memory and mirrors every
// confirmed remote mutation into that collection.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

var (
	ErrNoUser       = errors.New("no signed-in user")
	ErrUserMismatch = errors.New("record belongs to another user")
)

// Store is the single source of truth for one user's records. The mutex is
// held only while reading or applying state, never across a remote call.
type Store struct {
	userID  string
	backend remote.Backend
	logger  *slog.Logger

	mu      sync.Mutex
	records []core.Record
	loaded  bool
	gen     uint64

	// memoized Total, valid while totalGen == gen
	total    decimal.Decimal
	totalGen uint64
	hasTotal bool
}

func New(userID string, backend remote.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		userID:  userID,
		backend: backend,
		logger:  logger.With("user_id", userID),
	}
}

func (s *Store) UserID() string { return s.userID }

// Load replaces the collection with the user's records from the backend.
// On failure the collection is left as it was. A result that arrives after
// ctx is cancelled is discarded.
func (s *Store) Load(ctx context.Context) error {
	if s.userID == "" {
		return ErrNoUser
	}
	recs, err := s.backend.ListByUser(ctx, s.userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load records", "error", err, "reason", remote.Reason(err))
		return fmt.Errorf("load records: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load records: %w: %w", remote.ErrTransport, err)
	}

	s.mu.Lock()
	s.records = append([]core.Record(nil), recs...)
	s.loaded = true
	s.gen++
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Records loaded", "count", len(recs))
	return nil
}

// Add creates r remotely and appends the stored record (with its new id).
// An empty UserID is filled with the store's user.
func (s *Store) Add(ctx context.Context, r core.Record) (core.Record, error) {
	if s.userID == "" {
		return core.Record{}, ErrNoUser
	}
	if r.UserID == "" {
		r.UserID = s.userID
	}
	if r.UserID != s.userID {
		return core.Record{}, ErrUserMismatch
	}
	r.ID = ""
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}

	created, err := s.backend.Create(ctx, r)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to create record", "error", err, "reason", remote.Reason(err))
		return core.Record{}, fmt.Errorf("add record: %w", err)
	}

	s.mu.Lock()
	s.records = append(s.records, created)
	s.gen++
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Record created", "record_id", created.ID, "amount", created.Amount.String())
	return created, nil
}

// Update sends p for id and merges its fields into the local record in place.
// Only records held in this user's collection can be updated; any other id is
// ErrNotFound and never reaches the backend.
func (s *Store) Update(ctx context.Context, id string, p core.Patch) (core.Record, error) {
	if err := p.Validate(); err != nil {
		return core.Record{}, err
	}
	if err := s.owned(ctx, id); err != nil {
		return core.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}
	stored, err := s.backend.Update(ctx, id, p)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to update record", "record_id", id, "error", err, "reason", remote.Reason(err))
		return core.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		// Removed locally while the call was in flight.
		s.logger.DebugContext(ctx, "Updated record no longer held locally", "record_id", id)
		return stored, nil
	}
	s.records[i] = p.Apply(s.records[i])
	s.gen++
	s.logger.InfoContext(ctx, "Record updated", "record_id", id)
	return s.records[i], nil
}

// Delete removes id remotely, then locally. Like Update it only acts on
// records held in this user's collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.owned(ctx, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if _, err := s.backend.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete record", "record_id", id, "error", err, "reason", remote.Reason(err))
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		s.records = append(s.records[:i], s.records[i+1:]...)
		s.gen++
	}
	s.logger.InfoContext(ctx, "Record deleted", "record_id", id)
	return nil
}

// Records returns a copy of the collection in order.
func (s *Store) Records() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.records...)
}

func (s *Store) Find(id string) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.records[i], true
	}
	return core.Record{}, false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Loaded reports whether a Load has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Total is the sum of all amounts, zero when empty.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasTotal || s.totalGen != s.gen {
		s.total = core.Total(s.records)
		s.totalGen = s.gen
		s.hasTotal = true
	}
	return s.total
}

// owned reports ErrNotFound for ids outside this user's collection.
func (s *Store) owned(ctx context.Context, id string) error {
	if s.userID == "" {
		return ErrNoUser
	}
	s.mu.Lock()
	i := s.index(id)
	s.mu.Unlock()
	if i < 0 {
		s.logger.WarnContext(ctx, "Rejected mutation of record not owned by user", "record_id", id)
		return fmt.Errorf("%w: record %s is not in the user's collection", remote.ErrNotFound, id)
	}
	return nil
}

func (s *Store) index(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
