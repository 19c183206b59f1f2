// Package core holds the domain model: currencies, transactions,
// categories and the balance arithmetic built on top of them.
//
// Amounts are decimal.Decimal throughout. The tracker handles two
// currencies with different minor units (USD has cents, KHR has no
// fractional riel), and conversion divides by the exchange rate, so
// binary floats and fixed cent scaling are both unsuitable.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Only USD and KHR are accepted.
type Currency string

const (
	USD Currency = "USD"
	KHR Currency = "KHR"
)

// DefaultExchangeRate is the reference rate: 1 USD = 4000 KHR.
const DefaultExchangeRate = 4000

var ErrInvalidCurrency = errors.New("invalid currency")

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case USD:
		return USD, nil
	case KHR:
		return KHR, nil
	default:
		return "", ErrInvalidCurrency
	}
}

func (c Currency) Validate() error {
	if c != USD && c != KHR {
		return ErrInvalidCurrency
	}
	return nil
}

// Exchange converts amounts between USD and KHR at a fixed rate.
// The rate is injected at startup rather than read from a global so
// callers that need a different rate (tests, future config) can carry
// their own instance.
type Exchange struct {
	rate decimal.Decimal // KHR per 1 USD
}

// NewExchange builds an Exchange with the given KHR-per-USD rate.
// A non-positive rate falls back to DefaultExchangeRate.
func NewExchange(rate decimal.Decimal) Exchange {
	if rate.Sign() <= 0 {
		rate = decimal.NewFromInt(DefaultExchangeRate)
	}
	return Exchange{rate: rate}
}

// DefaultExchange returns an Exchange at the reference rate.
func DefaultExchange() Exchange {
	return NewExchange(decimal.NewFromInt(DefaultExchangeRate))
}

// Rate returns the configured KHR-per-USD rate.
func (e Exchange) Rate() decimal.Decimal {
	return e.rate
}

// Convert converts amount between currencies. Same-currency conversion
// returns the amount unchanged, with no arithmetic round trip.
func (e Exchange) Convert(amount decimal.Decimal, from, to Currency) decimal.Decimal {
	if from == to {
		return amount
	}
	if from == USD && to == KHR {
		return amount.Mul(e.rate)
	}
	return amount.Div(e.rate)
}

// Format renders an amount for display in the given currency. USD uses
// two decimal places and a dollar sign; KHR is rounded to whole riel.
// Both use thousands separators and a leading minus for negatives.
// Formatting never feeds back into calculations.
func Format(amount decimal.Decimal, c Currency) string {
	neg := amount.Sign() < 0
	abs := amount.Abs()

	var body string
	switch c {
	case KHR:
		body = "៛" + groupThousands(abs.Round(0).StringFixed(0))
	default:
		fixed := abs.StringFixed(2)
		intPart, fracPart, _ := strings.Cut(fixed, ".")
		body = "$" + groupThousands(intPart) + "." + fracPart
	}

	if neg {
		return "-" + body
	}
	return body
}

// groupThousands inserts comma separators into a plain digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
