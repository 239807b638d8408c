package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

func sample(user, desc string, amount int64) core.Record {
	return core.Record{
		UserID:        user,
		Date:          time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Description:   desc,
		Amount:        decimal.NewFromInt(amount),
		Category:      core.Food,
		PaymentMethod: core.Cash,
	}
}

func TestCreateListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.Create(ctx, sample("u1", "a", 10))
	if err != nil || a.ID == "" {
		t.Fatalf("create: %+v %v", a, err)
	}
	if _, err := s.Create(ctx, sample("u2", "other", 5)); err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := s.Create(ctx, sample("u1", "b", -4))

	got, _ := s.ListByUser(ctx, "u1")
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Fatalf("unexpected list: %+v", got)
	}

	desc := "renamed"
	upd, err := s.Update(ctx, a.ID, core.Patch{Description: &desc})
	if err != nil || upd.Description != "renamed" || upd.ID != a.ID || !upd.Amount.Equal(a.Amount) {
		t.Fatalf("update: %+v %v", upd, err)
	}

	del, err := s.Delete(ctx, b.ID)
	if err != nil || del.ID != b.ID {
		t.Fatalf("delete: %+v %v", del, err)
	}
	got, _ = s.ListByUser(ctx, "u1")
	if len(got) != 1 || got[0].Description != "renamed" {
		t.Fatalf("unexpected list after delete: %+v", got)
	}
}

func TestMissingRecordIsNotFound(t *testing.T) {
	s := New()
	desc := "x"
	if _, err := s.Update(context.Background(), "nope", core.Patch{Description: &desc}); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Delete(context.Background(), "nope"); !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestCreateValidates(t *testing.T) {
	r := sample("u1", "", 1)
	if _, err := New().Create(context.Background(), r); !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
}

func TestListUnknownUserIsEmptyNotNil(t *testing.T) {
	got, err := New().ListByUser(context.Background(), "ghost")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v %v", got, err)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil || s == nil {
		t.Fatalf("missing file should give empty store: %v", err)
	}

	path := filepath.Join(dir, "seed.json")
	content := `[
		{"userId":"u1","date":"2025-02-01","description":"Pay","amount":"1200","category":"Salary","paymentMethod":"Bank Transfer"},
		{"userId":"u1","date":"2025-02-03","description":"Groceries","amount":"-54,20","category":"Food","paymentMethod":"Credit Card"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, _ := s.ListByUser(context.Background(), "u1")
	if len(got) != 2 || got[1].Amount.String() != "-54.2" || got[0].ID == "" {
		t.Fatalf("unexpected seed: %+v", got)
	}

	if err := os.WriteFile(path, []byte(`[{"userId":"u1","amount":"1","description":"x","category":"Nope","paymentMethod":"Cash"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}
