// Package sheets defines the outbound port for the ledger export and
// the row format written by its adapters.
package sheets

import "context"

// Entry is one exported ledger row.
type Entry struct {
	Action      string // created, updated, deleted
	ID          string
	Type        string
	Amount      string
	Currency    string
	Category    string
	Description string
	Date        string
	Timestamp   string
}

// LedgerAppender appends one entry and returns a reference to the
// written row (for Google Sheets, an A1 range).
type LedgerAppender interface {
	AppendEntry(ctx context.Context, e Entry) (rowRef string, err error)
}
