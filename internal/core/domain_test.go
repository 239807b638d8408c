package core

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validRecord() Record {
	return Record{
		UserID:        "user_1",
		Date:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Description:   "Groceries",
		Amount:        decimal.RequireFromString("-42.10"),
		Category:      Food,
		PaymentMethod: Cash,
	}
}

func TestRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Record)
		want   error
	}{
		{"empty user", func(r *Record) { r.UserID = " " }, ErrEmptyUser},
		{"zero date", func(r *Record) { r.Date = time.Time{} }, ErrInvalidDate},
		{"blank description", func(r *Record) { r.Description = "   " }, ErrEmptyDescription},
		{"long description", func(r *Record) { r.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"unknown category", func(r *Record) { r.Category = "Travel" }, ErrInvalidCategory},
		{"unknown payment", func(r *Record) { r.PaymentMethod = "Cheque" }, ErrInvalidPayment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validRecord()
			tc.mutate(&r)
			if err := r.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestZeroAndNegativeAmountsAreAccepted(t *testing.T) {
	r := validRecord()
	r.Amount = decimal.Zero
	if err := r.Validate(); err != nil {
		t.Fatalf("zero amount should be valid, got %v", err)
	}
	if r.Kind() != Income {
		t.Fatalf("zero amount should be labelled income, got %s", r.Kind())
	}
}

func TestSignedAndKindOf(t *testing.T) {
	ten := decimal.NewFromInt(10)
	if got := Signed(ten, Expense); !got.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("expense should be negative, got %s", got)
	}
	if got := Signed(ten.Neg(), Income); !got.Equal(ten) {
		t.Fatalf("income should be positive, got %s", got)
	}
	if KindOf(decimal.NewFromInt(-1)) != Expense || KindOf(ten) != Income {
		t.Fatalf("kind must follow the sign")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"income": Income, " Expense ": Expense} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseKind("transfer"); err != ErrInvalidKind {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestPatchApplyOnlyTouchesSetFields(t *testing.T) {
	r := validRecord()
	r.ID = "abc"
	desc := "Dinner"
	cat := Entertainment
	got := Patch{Description: &desc, Category: &cat}.Apply(r)

	if got.Description != "Dinner" || got.Category != Entertainment {
		t.Fatalf("patched fields not applied: %+v", got)
	}
	if got.ID != r.ID || got.UserID != r.UserID || !got.Amount.Equal(r.Amount) ||
		got.PaymentMethod != r.PaymentMethod || !got.Date.Equal(r.Date) {
		t.Fatalf("unpatched fields changed: %+v", got)
	}
}

func TestPatchValidate(t *testing.T) {
	if err := (Patch{}).Validate(); err != ErrEmptyPatch {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
	blank := ""
	if err := (Patch{Description: &blank}).Validate(); err != ErrEmptyDescription {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	bad := PaymentMethod("Barter")
	if err := (Patch{PaymentMethod: &bad}).Validate(); err != ErrInvalidPayment {
		t.Fatalf("expected ErrInvalidPayment, got %v", err)
	}
	amt := decimal.NewFromInt(-3)
	if err := (Patch{Amount: &amt}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}
