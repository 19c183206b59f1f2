package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"0.01", "0.01", true},
		{"0", "", false},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	if got, err := ParseTransactionType(" Income "); err != nil || got != TypeIncome {
		t.Fatalf("expected income, got %s (err=%v)", got, err)
	}
	if _, err := ParseTransactionType("transfer"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.June || d.Day() != 15 {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("15/06/2025"); err == nil {
		t.Fatalf("expected error for wrong format")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:     TypeExpense,
		Amount:   decimal.NewFromInt(10),
		Currency: USD,
		Date:     NewDate(2025, 6, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Transaction)
		want error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) }, ErrInvalidAmount},
		{"bad currency", func(tx *Transaction) { tx.Currency = "EUR" }, ErrInvalidCurrency},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		tx := good
		tc.mut(&tx)
		if err := tx.Validate(); err != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	long := good
	for len(long.Description) <= 200 {
		long.Description += "xxxxxxxxxx"
	}
	if err := long.Validate(); err != ErrDescriptionLong {
		t.Fatalf("expected ErrDescriptionLong, got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "   "}).Validate(); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestProfileValidate(t *testing.T) {
	if err := (Profile{Username: "sokha", PreferredCurrency: KHR}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Empty preferred currency means "not set yet" and is allowed.
	if err := (Profile{}).Validate(); err != nil {
		t.Fatalf("expected ok for empty profile, got %v", err)
	}
	if err := (Profile{PreferredCurrency: "EUR"}).Validate(); err != ErrInvalidCurrency {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}
