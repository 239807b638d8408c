package memory

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

func (sr seedRecord) toCore() (core.Record, error) {
	amount, err := core.ParseSigned(sr.Amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("amount %q: %w", sr.Amount, err)
	}
	date := time.Now().UTC()
	if sr.Date != "" {
		date, err = time.Parse(time.DateOnly, sr.Date)
		if err != nil {
			return core.Record{}, fmt.Errorf("date %q: %w", sr.Date, err)
		}
	}
	r := core.Record{
		UserID:        sr.UserID,
		Date:          date,
		Description:   sr.Description,
		Amount:        amount,
		Category:      core.Category(sr.Category),
		PaymentMethod: core.PaymentMethod(sr.PaymentMethod),
	}
	return r, r.Validate()
}
