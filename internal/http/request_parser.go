// Package http serves the records dashboard.
//
// This file parses the record form. Bodies may be form-encoded (HTMX) or
// JSON, so API clients can post the same fields.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const maxFormBytes = 64 << 10

// Form field names shared with the templates.
const (
	fieldDescription   = "description"
	fieldAmount        = "amount"
	fieldType          = "type"
	fieldCategory      = "category"
	fieldPaymentMethod = "paymentMethod"
	fieldDate          = "date"
)

// RequestBodyParser reads a request body once and serves its fields whether
// it was JSON or form-encoded.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes))
	return p
}

// Parse decodes the body as JSON when it looks like an object, as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized field value, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool { return p.jsonData != nil }

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

type valueGetter interface {
	Get(key string) string
}

// recordInput is the editable part of a record as submitted by the form.
type recordInput struct {
	Description   string
	Magnitude     string
	Kind          core.Kind
	Amount        decimal.Decimal
	Category      core.Category
	PaymentMethod core.PaymentMethod
	// Date is zero when the form did not send one.
	Date time.Time
}

// parseRecordInput reads and validates the record fields. On error the
// returned input still carries what was submitted, for re-rendering.
func parseRecordInput(src valueGetter) (recordInput, error) {
	in := recordInput{
		Description:   src.Get(fieldDescription),
		Magnitude:     src.Get(fieldAmount),
		Kind:          core.Expense,
		Category:      core.Category(src.Get(fieldCategory)),
		PaymentMethod: core.PaymentMethod(src.Get(fieldPaymentMethod)),
	}

	var errs []error
	if v := src.Get(fieldType); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			in.Kind = k
		}
	}
	if strings.TrimSpace(in.Description) == "" {
		errs = append(errs, core.ErrEmptyDescription)
	} else if len(in.Description) > 200 {
		errs = append(errs, core.ErrDescriptionTooLong)
	}
	mag, err := core.ParseMagnitude(in.Magnitude)
	if err != nil {
		errs = append(errs, err)
	} else {
		in.Amount = core.Signed(mag, in.Kind)
	}
	if !in.Category.Valid() {
		errs = append(errs, core.ErrInvalidCategory)
	}
	if !in.PaymentMethod.Valid() {
		errs = append(errs, core.ErrInvalidPayment)
	}
	if v := src.Get(fieldDate); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			errs = append(errs, core.ErrInvalidDate)
		} else {
			in.Date = d
		}
	}
	return in, errors.Join(errs...)
}

// Patch returns the update sent by the edit form. The date is left alone
// unless the form sent one.
func (in recordInput) Patch() core.Patch {
	p := core.Patch{
		Description:   &in.Description,
		Amount:        &in.Amount,
		Category:      &in.Category,
		PaymentMethod: &in.PaymentMethod,
	}
	if !in.Date.IsZero() {
		p.Date = &in.Date
	}
	return p
}

// Record builds a new record for userID, dated now unless the form sent a date.
func (in recordInput) Record(userID string, now time.Time) core.Record {
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return core.Record{
		UserID:        userID,
		Date:          date,
		Description:   in.Description,
		Amount:        in.Amount,
		Category:      in.Category,
		PaymentMethod: in.PaymentMethod,
	}
}

// validationMessage turns joined validation errors into one line for the user.
func validationMessage(err error) string {
	var msgs []string
	add := func(target error, msg string) {
		if errors.Is(err, target) {
			msgs = append(msgs, msg)
		}
	}
	add(core.ErrEmptyDescription, "Description is required")
	add(core.ErrDescriptionTooLong, "Description must be at most 200 characters")
	add(core.ErrInvalidAmount, "Amount must be a positive number such as 12.50")
	add(core.ErrInvalidKind, "Type must be income or expense")
	add(core.ErrInvalidCategory, "Select a category")
	add(core.ErrInvalidPayment, "Select a payment method")
	add(core.ErrInvalidDate, "Date must be YYYY-MM-DD")
	if len(msgs) == 0 {
		return "Invalid record"
	}
	return strings.Join(msgs, ". ")
}
