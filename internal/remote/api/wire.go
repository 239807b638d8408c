package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// record is the JSON shape used by the financial-records API.
type record struct {
	ID            string      `json:"_id,omitempty"`
	UserID        string      `json:"userId"`
	Date          time.Time   `json:"date"`
	Description   string      `json:"description"`
	Amount        json.Number `json:"amount"`
	Category      string      `json:"category"`
	PaymentMethod string      `json:"paymentMethod"`
}

// patch is the body of a PUT; only set fields are sent.
type patch struct {
	Date          *time.Time   `json:"date,omitempty"`
	Description   *string      `json:"description,omitempty"`
	Amount        *json.Number `json:"amount,omitempty"`
	Category      *string      `json:"category,omitempty"`
	PaymentMethod *string      `json:"paymentMethod,omitempty"`
}

func fromCore(r core.Record) record {
	return record{
		ID:            r.ID,
		UserID:        r.UserID,
		Date:          r.Date,
		Description:   r.Description,
		Amount:        json.Number(r.Amount.String()),
		Category:      string(r.Category),
		PaymentMethod: string(r.PaymentMethod),
	}
}

func (w record) toCore() (core.Record, error) {
	amount, err := decimal.NewFromString(w.Amount.String())
	if err != nil {
		return core.Record{}, fmt.Errorf("amount %q: %w", w.Amount, err)
	}
	return core.Record{
		ID:            w.ID,
		UserID:        w.UserID,
		Date:          w.Date,
		Description:   w.Description,
		Amount:        amount,
		Category:      core.Category(w.Category),
		PaymentMethod: core.PaymentMethod(w.PaymentMethod),
	}, nil
}

func patchFromCore(p core.Patch) patch {
	var out patch
	out.Date = p.Date
	out.Description = p.Description
	if p.Amount != nil {
		n := json.Number(p.Amount.String())
		out.Amount = &n
	}
	if p.Category != nil {
		s := string(*p.Category)
		out.Category = &s
	}
	if p.PaymentMethod != nil {
		s := string(*p.PaymentMethod)
		out.PaymentMethod = &s
	}
	return out
}
