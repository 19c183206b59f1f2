// Package memory is an in-process store used by tests and local runs
// without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"riel/internal/core"
	"riel/internal/store"
)

// DefaultCategories seed every new memory store, mirroring the
// defaults shipped in the database migrations.
var DefaultCategories = []string{
	"Food", "Transport", "Rent", "Salary", "Entertainment",
	"Utilities", "Health", "Shopping", "Other",
}

type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	cats    []core.Category
	profile *core.Profile
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	for _, name := range DefaultCategories {
		s.cats = append(s.cats, core.Category{
			ID:        uuid.New(),
			Name:      name,
			IsDefault: true,
		})
	}
	return s
}

func (s *Store) ListTransactions(_ context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) CountTransactions(_ context.Context, f store.TransactionFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.txs {
		if f.Type == "" || t.Type == f.Type {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t.ID = uuid.New()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.CategoryName = s.categoryName(t.CategoryID)
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id uuid.UUID, p store.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txs {
		if s.txs[i].ID != id {
			continue
		}
		t := s.txs[i]
		if p.Type != nil {
			t.Type = *p.Type
		}
		if p.Amount != nil {
			t.Amount = *p.Amount
		}
		if p.Currency != nil {
			t.Currency = *p.Currency
		}
		if p.ClearCategory {
			t.CategoryID = nil
		} else if p.CategoryID != nil {
			t.CategoryID = p.CategoryID
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Date != nil {
			t.Date = *p.Date
		}
		if err := t.Validate(); err != nil {
			return core.Transaction{}, err
		}
		t.CategoryName = s.categoryName(t.CategoryID)
		t.UpdatedAt = time.Now().UTC()
		s.txs[i] = t
		return t, nil
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.txs {
		if s.txs[i].ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]core.Category(nil), s.cats...)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New()
	c.Name = strings.TrimSpace(c.Name)
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) GetProfile(_ context.Context) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return core.Profile{}, store.ErrNotFound
	}
	return *s.profile, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		if s.profile != nil {
			p.ID = s.profile.ID
		} else {
			p.ID = uuid.New()
		}
	}
	p.UpdatedAt = time.Now().UTC()
	s.profile = &p
	return p, nil
}

// categoryName resolves the joined name; callers hold the lock.
func (s *Store) categoryName(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	for _, c := range s.cats {
		if c.ID == *id {
			return c.Name
		}
	}
	return ""
}
