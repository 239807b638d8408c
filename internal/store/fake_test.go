package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

// fakeBackend records calls and lets tests inject failures or block.
type fakeBackend struct {
	mu      sync.Mutex
	records []core.Record
	nextID  int
	err     error
	calls   map[string]int
	block   chan struct{}
}

func newFake(records ...core.Record) *fakeBackend {
	return &fakeBackend{records: records, calls: map[string]int{}}
}

func (f *fakeBackend) hit(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err, block := f.err, f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeBackend) ListByUser(ctx context.Context, userID string) ([]core.Record, error) {
	if err := f.hit("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Record
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) Create(ctx context.Context, r core.Record) (core.Record, error) {
	if err := f.hit("create"); err != nil {
		return core.Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = fmt.Sprintf("srv-%d", f.nextID)
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeBackend) Update(ctx context.Context, id string, p core.Patch) (core.Record, error) {
	if err := f.hit("update"); err != nil {
		return core.Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id {
			f.records[i] = p.Apply(r)
			return f.records[i], nil
		}
	}
	// The remote may know records the local collection does not.
	return p.Apply(core.Record{ID: id}), nil
}

func (f *fakeBackend) Delete(ctx context.Context, id string) (core.Record, error) {
	if err := f.hit("delete"); err != nil {
		return core.Record{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.records {
		if r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return r, nil
		}
	}
	return core.Record{}, remote.ErrNotFound
}

var _ remote.Backend = (*fakeBackend)(nil)

func rec(id, user, desc string, amount string) core.Record {
	return core.Record{
		ID:            id,
		UserID:        user,
		Date:          time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Description:   desc,
		Amount:        decimal.RequireFromString(amount),
		Category:      core.Other,
		PaymentMethod: core.Cash,
	}
}
