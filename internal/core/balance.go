package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyTotals holds the signed running totals for one currency.
// Balance = Income - Expense; income and expense are kept separately
// for the stat cards.
type CurrencyTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Summary aggregates a transaction list into independent per-currency
// totals. USD and KHR are never summed into one pool here; any
// cross-currency view must convert explicitly via Exchange.
type Summary struct {
	USD CurrencyTotals
	KHR CurrencyTotals
}

// Summarize folds transactions into per-currency totals. The fold is
// pure and order-independent: decimal addition is exact, so any
// permutation of the input yields the same result.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		totals := &s.USD
		if t.Currency == KHR {
			totals = &s.KHR
		}
		switch t.Type {
		case TypeIncome:
			totals.Income = totals.Income.Add(t.Amount)
			totals.Balance = totals.Balance.Add(t.Amount)
		case TypeExpense:
			totals.Expense = totals.Expense.Add(t.Amount)
			totals.Balance = totals.Balance.Sub(t.Amount)
		}
	}
	return s
}

// Totals returns the totals for one currency.
func (s Summary) Totals(c Currency) CurrencyTotals {
	if c == KHR {
		return s.KHR
	}
	return s.USD
}

// Balance returns the signed balance for one currency.
func (s Summary) Balance(c Currency) decimal.Decimal {
	return s.Totals(c).Balance
}

// FundsCheck is the result of an insufficient-balance guard. It is a
// guard condition, not an error: income entries are never blocked and
// the store itself does not enforce non-negative balances.
type FundsCheck struct {
	Sufficient bool
	Message    string
}

// CheckFunds compares a proposed expense amount against the available
// balance in the same currency. No conversion is applied: the amount
// is always checked like-for-like against the balance it would be
// drawn from.
func CheckFunds(balance, amount decimal.Decimal, c Currency) FundsCheck {
	if amount.LessThanOrEqual(balance) {
		return FundsCheck{Sufficient: true}
	}
	short := amount.Sub(balance)
	return FundsCheck{
		Sufficient: false,
		Message: fmt.Sprintf("Insufficient %s balance: short %s, available %s",
			c, Format(short, c), Format(balance, c)),
	}
}

// CategoryAmount is an amount aggregated under a category name,
// expressed in the display currency of the grouping call.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// DayAmount is an amount aggregated for one calendar day.
type DayAmount struct {
	Day    Date
	Amount decimal.Decimal
}

// GroupByCategory sums transactions of one type per category name,
// converting each amount into the display currency via ex. Results are
// sorted by amount, largest first; transactions without a category
// fall under "Uncategorized". All chart views share this fold.
func GroupByCategory(txs []Transaction, typ TransactionType, ex Exchange, display Currency) []CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		name := t.CategoryName
		if name == "" {
			name = "Uncategorized"
		}
		sums[name] = sums[name].Add(ex.Convert(t.Amount, t.Currency, display))
	}

	out := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GroupByDay sums transactions of one type per calendar day over the
// inclusive [from, to] window, converting into the display currency.
// Days without transactions appear with a zero amount so time charts
// render a continuous axis.
func GroupByDay(txs []Transaction, typ TransactionType, ex Exchange, display Currency, from, to Date) []DayAmount {
	sums := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		day := t.Date.Format("2006-01-02")
		sums[day] = sums[day].Add(ex.Convert(t.Amount, t.Currency, display))
	}

	var out []DayAmount
	for d := from.Time; !d.After(to.Time); d = d.AddDate(0, 0, 1) {
		out = append(out, DayAmount{
			Day:    Date{Time: d},
			Amount: sums[d.Format("2006-01-02")],
		})
	}
	return out
}

// LastNDays returns the window ending today (UTC) spanning n days.
func LastNDays(n int, now time.Time) (Date, Date) {
	to := NewDate(now.Year(), int(now.Month()), now.Day())
	from := Date{Time: to.AddDate(0, 0, -(n - 1))}
	return from, to
}
