// Package sqlite is the primary store backend: a single-file database
// with embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"riel/internal/core"
	"riel/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const txColumns = `t.id, t.type, t.amount, t.currency, t.category_id,
	COALESCE(c.name, ''), t.description, t.transaction_date, t.created_at, t.updated_at`

func (s *Store) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id`
	var args []any
	if f.Type != "" {
		query += ` WHERE t.type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY t.transaction_date DESC, t.created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	} else if f.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountTransactions(ctx context.Context, f store.TransactionFilter) (int, error) {
	query := `SELECT COUNT(*) FROM transactions`
	var args []any
	if f.Type != "" {
		query += ` WHERE type = ?`
		args = append(args, string(f.Type))
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+txColumns+`
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`, id.String())

	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, err
}

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	t.ID = uuid.New()
	t.CreatedAt = now
	t.UpdatedAt = now

	var categoryID any
	if t.CategoryID != nil {
		categoryID = t.CategoryID.String()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(id, type, amount, currency, category_id, description, transaction_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), string(t.Type), t.Amount.String(), string(t.Currency),
		categoryID, t.Description, t.Date.Format("2006-01-02"), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	return s.GetTransaction(ctx, t.ID)
}

func (s *Store) UpdateTransaction(ctx context.Context, id uuid.UUID, p store.TransactionPatch) (core.Transaction, error) {
	current, err := s.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	var sets []string
	var args []any
	if p.Type != nil {
		current.Type = *p.Type
		sets = append(sets, "type = ?")
		args = append(args, string(*p.Type))
	}
	if p.Amount != nil {
		current.Amount = *p.Amount
		sets = append(sets, "amount = ?")
		args = append(args, p.Amount.String())
	}
	if p.Currency != nil {
		current.Currency = *p.Currency
		sets = append(sets, "currency = ?")
		args = append(args, string(*p.Currency))
	}
	if p.ClearCategory {
		current.CategoryID = nil
		sets = append(sets, "category_id = NULL")
	} else if p.CategoryID != nil {
		current.CategoryID = p.CategoryID
		sets = append(sets, "category_id = ?")
		args = append(args, p.CategoryID.String())
	}
	if p.Description != nil {
		current.Description = *p.Description
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Date != nil {
		current.Date = *p.Date
		sets = append(sets, "transaction_date = ?")
		args = append(args, p.Date.Format("2006-01-02"))
	}
	if err := current.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if len(sets) == 0 {
		return current, nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id.String())

	_, err = s.db.ExecContext(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	return s.GetTransaction(ctx, id)
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, is_default, owner_id
		FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c       core.Category
			idStr   string
			ownerID sql.NullString
		)
		if err := rows.Scan(&idStr, &c.Name, &c.IsDefault, &ownerID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse category id: %w", err)
		}
		if ownerID.Valid {
			owner, err := uuid.Parse(ownerID.String)
			if err != nil {
				return nil, fmt.Errorf("parse owner id: %w", err)
			}
			c.OwnerID = &owner
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	c.ID = uuid.New()
	c.Name = strings.TrimSpace(c.Name)

	var ownerID any
	if c.OwnerID != nil {
		ownerID = c.OwnerID.String()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name, is_default, owner_id)
		VALUES (?, ?, ?, ?)`, c.ID.String(), c.Name, c.IsDefault, ownerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Store) GetProfile(ctx context.Context) (core.Profile, error) {
	var (
		p        core.Profile
		idStr    string
		currency string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, username, preferred_currency, dark_mode, avatar_path, updated_at
		FROM profiles LIMIT 1`).
		Scan(&idStr, &p.Username, &currency, &p.DarkMode, &p.AvatarPath, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if p.ID, err = uuid.Parse(idStr); err != nil {
		return core.Profile{}, fmt.Errorf("parse profile id: %w", err)
	}
	p.PreferredCurrency = core.Currency(currency)
	return p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}

	existing, err := s.GetProfile(ctx)
	switch {
	case err == nil:
		p.ID = existing.ID
	case errors.Is(err, store.ErrNotFound):
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	default:
		return core.Profile{}, err
	}
	if p.PreferredCurrency == "" {
		p.PreferredCurrency = core.USD
	}
	p.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `INSERT INTO profiles (id, username, preferred_currency, dark_mode, avatar_path, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			preferred_currency = excluded.preferred_currency,
			dark_mode = excluded.dark_mode,
			avatar_path = excluded.avatar_path,
			updated_at = excluded.updated_at`,
		p.ID.String(), p.Username, string(p.PreferredCurrency), p.DarkMode, p.AvatarPath, p.UpdatedAt)
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		idStr      string
		typ        string
		amountStr  string
		currency   string
		categoryID sql.NullString
		dateStr    string
	)
	err := row.Scan(&idStr, &typ, &amountStr, &currency, &categoryID,
		&t.CategoryName, &t.Description, &dateStr, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	if t.ID, err = uuid.Parse(idStr); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	t.Type = core.TransactionType(typ)
	if t.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	t.Currency = core.Currency(currency)
	if categoryID.Valid {
		cid, err := uuid.Parse(categoryID.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse category id: %w", err)
		}
		t.CategoryID = &cid
	}
	if t.Date, err = core.ParseDate(dateStr); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	return t, nil
}
