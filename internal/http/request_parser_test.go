package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func validForm() url.Values {
	return url.Values{
		"description":   {"Groceries"},
		"amount":        {"42,50"},
		"type":          {"expense"},
		"category":      {"Food"},
		"paymentMethod": {"Cash"},
	}
}

func TestParseRecordInput(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(url.Values)
		wantAmount string
		wantErr    error
	}{
		{name: "expense is negative", mutate: func(url.Values) {}, wantAmount: "-42.50"},
		{name: "income is positive", mutate: func(v url.Values) { v.Set("type", "income") }, wantAmount: "42.50"},
		{name: "type defaults to expense", mutate: func(v url.Values) { v.Del("type") }, wantAmount: "-42.50"},
		{name: "zero is allowed", mutate: func(v url.Values) { v.Set("amount", "0") }, wantAmount: "0.00"},
		{name: "missing description", mutate: func(v url.Values) { v.Set("description", "  ") }, wantErr: core.ErrEmptyDescription},
		{name: "signed amount rejected", mutate: func(v url.Values) { v.Set("amount", "-5") }, wantErr: core.ErrInvalidAmount},
		{name: "missing amount", mutate: func(v url.Values) { v.Del("amount") }, wantErr: core.ErrInvalidAmount},
		{name: "unknown type", mutate: func(v url.Values) { v.Set("type", "refund") }, wantErr: core.ErrInvalidKind},
		{name: "unknown category", mutate: func(v url.Values) { v.Set("category", "Travel") }, wantErr: core.ErrInvalidCategory},
		{name: "missing payment method", mutate: func(v url.Values) { v.Del("paymentMethod") }, wantErr: core.ErrInvalidPayment},
		{name: "bad date", mutate: func(v url.Values) { v.Set("date", "03/01/2025") }, wantErr: core.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(form)

			in, err := parseRecordInput(form)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := core.FormatAmount(in.Amount); got != tt.wantAmount {
				t.Errorf("Amount = %s, want %s", got, tt.wantAmount)
			}
		})
	}
}

func TestParseRecordInputCollectsAllErrors(t *testing.T) {
	_, err := parseRecordInput(url.Values{})
	for _, want := range []error{core.ErrEmptyDescription, core.ErrInvalidAmount, core.ErrInvalidCategory, core.ErrInvalidPayment} {
		if !errors.Is(err, want) {
			t.Errorf("missing %v in %v", want, err)
		}
	}
	msg := validationMessage(err)
	if !strings.Contains(msg, "Description is required") || !strings.Contains(msg, "Select a payment method") {
		t.Errorf("validationMessage = %q", msg)
	}
}

func TestRecordInputRecordAndPatch(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in, err := parseRecordInput(validForm())
	if err != nil {
		t.Fatal(err)
	}

	r := in.Record("u1", now)
	if r.UserID != "u1" || !r.Date.Equal(now) || r.ID != "" {
		t.Errorf("Record = %+v", r)
	}

	p := in.Patch()
	if p.Date != nil {
		t.Error("edit without a date must not touch the stored date")
	}
	if p.Description == nil || *p.Description != "Groceries" || p.Amount == nil || p.Category == nil || p.PaymentMethod == nil {
		t.Errorf("Patch = %+v", p)
	}

	form := validForm()
	form.Set("date", "2024-12-31")
	in, err = parseRecordInput(form)
	if err != nil {
		t.Fatal(err)
	}
	if got := in.Record("u1", now).Date.Format(time.DateOnly); got != "2024-12-31" {
		t.Errorf("date = %s", got)
	}
}

func TestRequestBodyParser(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("description=%20Rent%00&amount=800"))
		p := NewRequestBodyParser(req)
		if err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		if p.IsJSON() {
			t.Error("form body reported as JSON")
		}
		if got := p.Get("description"); got != "Rent" {
			t.Errorf("description = %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"description":"Pay","amount":1200.5,"type":"income"}`))
		p := NewRequestBodyParser(req)
		if err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		if !p.IsJSON() {
			t.Error("JSON body not detected")
		}
		if p.Get("amount") != "1200.5" || p.Get("type") != "income" || p.Get("missing") != "" {
			t.Errorf("unexpected values: %q %q", p.Get("amount"), p.Get("type"))
		}
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(`{"description":`))
		if err := NewRequestBodyParser(req).Parse(); err == nil {
			t.Error("expected parse error")
		}
	})
}
