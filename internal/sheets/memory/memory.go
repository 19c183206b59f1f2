// Package memory is an in-memory ledger appender for tests and local
// development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "riel/internal/sheets"
)

type Appender struct {
	mu      sync.Mutex
	entries []ports.Entry
}

var _ ports.LedgerAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) AppendEntry(_ context.Context, e ports.Entry) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = append(a.entries, e)
	return fmt.Sprintf("memory!A%d", len(a.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (a *Appender) Entries() []ports.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ports.Entry, len(a.entries))
	copy(out, a.entries)
	return out
}
