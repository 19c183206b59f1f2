// Package http provides the web server and handler implementations.
//
// This file implements parsing and validation of request data: the
// transaction form, pagination parameters, and chart parameters.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"riel/internal/core"
	"riel/internal/store"
)

// TransactionForm holds a parsed and validated transaction submission.
type TransactionForm struct {
	Transaction core.Transaction
}

// ParseTransactionForm validates the submitted fields and assembles a
// transaction. Validation happens here, before any store call; the
// returned message is safe to render inline.
func ParseTransactionForm(form url.Values) (TransactionForm, string) {
	txType, err := core.ParseTransactionType(form.Get("type"))
	if err != nil {
		return TransactionForm{}, "Select income or expense"
	}

	amount, err := core.ParseAmount(form.Get("amount"))
	if err != nil {
		return TransactionForm{}, "Amount must be a positive number"
	}

	currency, err := core.ParseCurrency(form.Get("currency"))
	if err != nil {
		return TransactionForm{}, "Currency must be USD or KHR"
	}

	date := core.NewDate(time.Now().Year(), int(time.Now().Month()), time.Now().Day())
	if v := strings.TrimSpace(form.Get("date")); v != "" {
		date, err = core.ParseDate(v)
		if err != nil {
			return TransactionForm{}, "Date must be YYYY-MM-DD"
		}
	}

	t := core.Transaction{
		Type:        txType,
		Amount:      amount,
		Currency:    currency,
		Description: sanitizeInput(form.Get("description")),
		Date:        date,
	}

	if v := strings.TrimSpace(form.Get("category_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return TransactionForm{}, "Invalid category"
		}
		t.CategoryID = &id
	}

	if err := t.Validate(); err != nil {
		return TransactionForm{}, err.Error()
	}
	return TransactionForm{Transaction: t}, ""
}

// PageParams holds pagination state for the transaction history list.
type PageParams struct {
	Type   core.TransactionType
	Offset int
}

// ParsePageParams extracts list filter and offset from query parameters.
// An unknown type falls back to unfiltered; a negative offset to zero.
func ParsePageParams(query url.Values) PageParams {
	var p PageParams
	if t, err := core.ParseTransactionType(query.Get("type")); err == nil {
		p.Type = t
	}
	if v := strings.TrimSpace(query.Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Offset = n
		}
	}
	return p
}

// Filter converts page params into a store filter with the given page size.
func (p PageParams) Filter(pageSize int) store.TransactionFilter {
	return store.TransactionFilter{Type: p.Type, Limit: pageSize, Offset: p.Offset}
}

// ParseDisplayCurrency reads a display currency from query parameters,
// defaulting to USD.
func ParseDisplayCurrency(query url.Values) core.Currency {
	if c, err := core.ParseCurrency(query.Get("currency")); err == nil {
		return c
	}
	return core.USD
}

// ParseID reads a uuid from form or query values under the given key.
func ParseID(r *http.Request, key string) (uuid.UUID, bool) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response
// on failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
