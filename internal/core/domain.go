package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food          Category = "Food"
	Rent          Category = "Rent"
	Salary        Category = "Salary"
	Utilities     Category = "Utilities"
	Entertainment Category = "Entertainment"
	Other         Category = "Other"
)

const (
	CreditCard   PaymentMethod = "Credit Card"
	Cash         PaymentMethod = "Cash"
	BankTransfer PaymentMethod = "Bank Transfer"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const maxDescriptionLen = 200

type (
	Category      string
	PaymentMethod string

	// Kind is derived from the sign of an amount and never stored.
	Kind string

	// Record is one income or expense entry owned by a user.
	// ID is empty until the remote store assigns one.
	Record struct {
		ID            string
		UserID        string
		Date          time.Time
		Description   string
		Amount        decimal.Decimal
		Category      Category
		PaymentMethod PaymentMethod
	}

	// Patch carries the fields of an update; nil fields are left untouched.
	Patch struct {
		Date          *time.Time
		Description   *string
		Amount        *decimal.Decimal
		Category      *Category
		PaymentMethod *PaymentMethod
	}
)

var (
	ErrEmptyUser          = errors.New("empty user id")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("date cannot be zero")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidPayment     = errors.New("invalid payment method")
	ErrInvalidKind        = errors.New("invalid record type")
	ErrEmptyPatch         = errors.New("nothing to update")
)

// Categories returns the selectable categories in display order.
func Categories() []Category {
	return []Category{Food, Rent, Salary, Utilities, Entertainment, Other}
}

// PaymentMethods returns the selectable payment methods in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{CreditCard, Cash, BankTransfer}
}

func (c Category) Valid() bool {
	for _, v := range Categories() {
		if c == v {
			return true
		}
	}
	return false
}

func (p PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods() {
		if p == v {
			return true
		}
	}
	return false
}

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrInvalidKind
}

// KindOf labels a signed amount. Zero counts as income.
func KindOf(amount decimal.Decimal) Kind {
	if amount.IsNegative() {
		return Expense
	}
	return Income
}

// Signed normalizes a magnitude to the sign convention of k.
func Signed(magnitude decimal.Decimal, k Kind) decimal.Decimal {
	abs := magnitude.Abs()
	if k == Expense {
		return abs.Neg()
	}
	return abs
}

// Kind returns the income/expense label of the record.
func (r Record) Kind() Kind {
	return KindOf(r.Amount)
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUser
	}
	if r.Date.IsZero() {
		return ErrInvalidDate
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if !r.Category.Valid() {
		return ErrInvalidCategory
	}
	if !r.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Validate checks the fields that are set.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrInvalidDate
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	return nil
}

func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Description == nil && p.Amount == nil &&
		p.Category == nil && p.PaymentMethod == nil
}

// Apply returns r with the patch fields merged in. ID and UserID never change.
func (p Patch) Apply(r Record) Record {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.PaymentMethod != nil {
		r.PaymentMethod = *p.PaymentMethod
	}
	return r
}
