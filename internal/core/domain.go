package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar date; the time-of-day portion is always
	// midnight UTC and carries no meaning.
	Date struct {
		time.Time
	}

	// Transaction is a single income or expense record. Amount is
	// always positive; Type carries the sign.
	Transaction struct {
		ID           uuid.UUID
		Type         TransactionType
		Amount       decimal.Decimal
		Currency     Currency
		CategoryID   *uuid.UUID
		CategoryName string // joined on read, empty when uncategorized
		Description  string
		Date         Date
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Category labels transactions for grouping. Default categories are
	// shipped with the schema and have no owner.
	Category struct {
		ID        uuid.UUID
		Name      string
		IsDefault bool
		OwnerID   *uuid.UUID
	}

	// Profile holds display preferences. A missing profile is an
	// expected empty state, never an error.
	Profile struct {
		ID                uuid.UUID
		Username          string
		PreferredCurrency Currency
		DarkMode          bool
		AvatarPath        string
		UpdatedAt         time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

func (t TransactionType) Validate() error {
	if t != TypeIncome && t != TypeExpense {
		return ErrInvalidType
	}
	return nil
}

// ParseTransactionType validates a form value as income or expense.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD form value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ParseAmount converts a form value to a positive decimal amount.
// Both dot and comma decimal separators are accepted. Zero, negative
// and malformed values are rejected before any store call is made.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := t.Currency.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 50 {
		return errors.New("category name too long (max 50 characters)")
	}
	return nil
}

func (p Profile) Validate() error {
	if len(p.Username) > 50 {
		return errors.New("username too long (max 50 characters)")
	}
	if p.PreferredCurrency != "" {
		return p.PreferredCurrency.Validate()
	}
	return nil
}
