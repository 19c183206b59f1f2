package http

import (
	"net/url"
	"testing"

	"github.com/google/uuid"

	"riel/internal/core"
)

func TestParseTransactionForm(t *testing.T) {
	catID := uuid.New()

	tests := []struct {
		name    string
		form    url.Values
		wantErr bool
	}{
		{
			name: "valid expense",
			form: url.Values{
				"type":        {"expense"},
				"amount":      {"12.50"},
				"currency":    {"USD"},
				"date":        {"2025-03-14"},
				"description": {"lunch"},
			},
		},
		{
			name: "valid with category and comma decimal",
			form: url.Values{
				"type":        {"income"},
				"amount":      {"4000,25"},
				"currency":    {"KHR"},
				"category_id": {catID.String()},
			},
		},
		{
			name:    "missing type",
			form:    url.Values{"amount": {"10"}, "currency": {"USD"}},
			wantErr: true,
		},
		{
			name:    "zero amount",
			form:    url.Values{"type": {"expense"}, "amount": {"0"}, "currency": {"USD"}},
			wantErr: true,
		},
		{
			name:    "negative amount",
			form:    url.Values{"type": {"expense"}, "amount": {"-5"}, "currency": {"USD"}},
			wantErr: true,
		},
		{
			name:    "bad currency",
			form:    url.Values{"type": {"expense"}, "amount": {"5"}, "currency": {"EUR"}},
			wantErr: true,
		},
		{
			name:    "bad date",
			form:    url.Values{"type": {"expense"}, "amount": {"5"}, "currency": {"USD"}, "date": {"14/03/2025"}},
			wantErr: true,
		},
		{
			name:    "bad category id",
			form:    url.Values{"type": {"expense"}, "amount": {"5"}, "currency": {"USD"}, "category_id": {"nope"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, msg := ParseTransactionForm(tt.form)
			if tt.wantErr {
				if msg == "" {
					t.Fatalf("expected validation message, got transaction %+v", form.Transaction)
				}
				return
			}
			if msg != "" {
				t.Fatalf("unexpected validation message: %q", msg)
			}
			if err := form.Transaction.Validate(); err != nil {
				t.Errorf("parsed transaction invalid: %v", err)
			}
		})
	}
}

func TestParseTransactionFormDefaultsDateToToday(t *testing.T) {
	form, msg := ParseTransactionForm(url.Values{
		"type": {"income"}, "amount": {"1"}, "currency": {"USD"},
	})
	if msg != "" {
		t.Fatalf("unexpected message: %q", msg)
	}
	if form.Transaction.Date.IsZero() {
		t.Error("expected date defaulted to today")
	}
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		wantType   core.TransactionType
		wantOffset int
	}{
		{"empty", url.Values{}, "", 0},
		{"typed", url.Values{"type": {"expense"}}, core.TypeExpense, 0},
		{"offset", url.Values{"offset": {"10"}}, "", 10},
		{"negative offset clamped", url.Values{"offset": {"-3"}}, "", 0},
		{"unknown type ignored", url.Values{"type": {"transfer"}}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(tt.query)
			if p.Type != tt.wantType || p.Offset != tt.wantOffset {
				t.Errorf("got %+v, want type=%q offset=%d", p, tt.wantType, tt.wantOffset)
			}
		})
	}
}

func TestParseDisplayCurrency(t *testing.T) {
	if c := ParseDisplayCurrency(url.Values{"currency": {"KHR"}}); c != core.KHR {
		t.Errorf("got %v, want KHR", c)
	}
	if c := ParseDisplayCurrency(url.Values{}); c != core.USD {
		t.Errorf("default = %v, want USD", c)
	}
}
