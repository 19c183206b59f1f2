// Package store defines the data-access boundary. Backends (sqlite,
// postgres, memory) implement these ports; everything above them is
// backend-agnostic.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"riel/internal/core"
)

// ErrNotFound is returned when a lookup matches nothing. Callers
// discriminate it with errors.Is: a missing profile is an expected
// empty state, a missing transaction is a 404.
var ErrNotFound = errors.New("not found")

// TransactionFilter narrows transaction reads. A zero Type matches
// both income and expense; Limit 0 means no limit.
type TransactionFilter struct {
	Type   core.TransactionType
	Limit  int
	Offset int
}

// TransactionPatch carries partial updates. Nil fields are untouched.
// ClearCategory removes the category link, since a nil CategoryID
// alone cannot distinguish "unset" from "set to none".
type TransactionPatch struct {
	Type          *core.TransactionType
	Amount        *decimal.Decimal
	Currency      *core.Currency
	CategoryID    *uuid.UUID
	ClearCategory bool
	Description   *string
	Date          *core.Date
}

type (
	// TransactionStore reads and writes transactions. Lists are ordered
	// most recent first by transaction date and joined with category
	// names.
	TransactionStore interface {
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, f TransactionFilter) (int, error)
		GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id uuid.UUID, p TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id uuid.UUID) error
	}

	// CategoryStore lists schema defaults unioned with user categories,
	// ordered by name.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	}

	// ProfileStore holds the single user profile. GetProfile returns
	// ErrNotFound until the profile has been saved once.
	ProfileStore interface {
		GetProfile(ctx context.Context) (core.Profile, error)
		SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error)
	}
)

// Store is the full data-access surface a backend provides.
type Store interface {
	TransactionStore
	CategoryStore
	ProfileStore
}
