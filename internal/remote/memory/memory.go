// Package memory is an in-process records backend used for local development
// and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

var (
	_ remote.Backend = (*Store)(nil)
	_ remote.Pinger  = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items []core.Record
	newID func() string
}

func New(seed ...core.Record) *Store {
	s := &Store{newID: uuid.NewString}
	for _, r := range seed {
		if r.ID == "" {
			r.ID = s.newID()
		}
		s.items = append(s.items, r)
	}
	return s
}

// seedRecord is the on-disk shape of a seed file entry.
type seedRecord struct {
	UserID        string `json:"userId"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	PaymentMethod string `json:"paymentMethod"`
}

// NewFromFile seeds the store from a JSON array. A missing file yields an
// empty store.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var raw []seedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	seed := make([]core.Record, 0, len(raw))
	for i, sr := range raw {
		r, err := sr.toCore()
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i, err)
		}
		seed = append(seed, r)
	}
	return New(seed...), nil
}

// ListByUser returns the user's records in insertion order.
func (s *Store) ListByUser(_ context.Context, userID string) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, 0)
	for _, r := range s.items {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, r core.Record) (core.Record, error) {
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.newID()
	s.items = append(s.items, r)
	return r, nil
}

func (s *Store) Update(_ context.Context, id string, p core.Patch) (core.Record, error) {
	if err := p.Validate(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("update %s: %w", id, remote.ErrNotFound)
	}
	s.items[i] = p.Apply(s.items[i])
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("delete %s: %w", id, remote.ErrNotFound)
	}
	r := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return r, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) index(id string) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}
