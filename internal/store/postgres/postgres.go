// Package postgres is an alternative store backend for deployments
// that already run Postgres.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"riel/internal/core"
	"riel/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "pgx", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

const txColumns = `t.id, t.type, t.amount::text, t.currency, t.category_id,
	COALESCE(c.name, ''), t.description, t.transaction_date, t.created_at, t.updated_at`

func (s *Store) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + `
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id`
	var args []any
	if f.Type != "" {
		query += ` WHERE t.type = $1`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY t.transaction_date DESC, t.created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, f.Limit, f.Offset)
	} else if f.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, len(args)+1)
		args = append(args, f.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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
		query += ` WHERE type = $1`
		args = append(args, string(f.Type))
	}
	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+txColumns+`
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1`, id)

	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

	_, err := s.pool.Exec(ctx, `INSERT INTO transactions
		(id, type, amount, currency, category_id, description, transaction_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, string(t.Type), t.Amount.String(), string(t.Currency),
		t.CategoryID, t.Description, t.Date.Time, t.CreatedAt, t.UpdatedAt)
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
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.Type != nil {
		current.Type = *p.Type
		sets = append(sets, "type = "+arg(string(*p.Type)))
	}
	if p.Amount != nil {
		current.Amount = *p.Amount
		sets = append(sets, "amount = "+arg(p.Amount.String()))
	}
	if p.Currency != nil {
		current.Currency = *p.Currency
		sets = append(sets, "currency = "+arg(string(*p.Currency)))
	}
	if p.ClearCategory {
		current.CategoryID = nil
		sets = append(sets, "category_id = NULL")
	} else if p.CategoryID != nil {
		current.CategoryID = p.CategoryID
		sets = append(sets, "category_id = "+arg(*p.CategoryID))
	}
	if p.Description != nil {
		current.Description = *p.Description
		sets = append(sets, "description = "+arg(*p.Description))
	}
	if p.Date != nil {
		current.Date = *p.Date
		sets = append(sets, "transaction_date = "+arg(p.Date.Time))
	}
	if err := current.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if len(sets) == 0 {
		return current, nil
	}

	sets = append(sets, "updated_at = "+arg(time.Now().UTC()))
	_, err = s.pool.Exec(ctx,
		`UPDATE transactions SET `+strings.Join(sets, ", ")+` WHERE id = `+arg(id), args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	return s.GetTransaction(ctx, id)
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, is_default, owner_id
		FROM categories ORDER BY LOWER(name)`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsDefault, &c.OwnerID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
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

	_, err := s.pool.Exec(ctx, `INSERT INTO categories (id, name, is_default, owner_id)
		VALUES ($1, $2, $3, $4)`, c.ID, c.Name, c.IsDefault, c.OwnerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *Store) GetProfile(ctx context.Context) (core.Profile, error) {
	var (
		p        core.Profile
		currency string
	)
	err := s.pool.QueryRow(ctx, `SELECT id, username, preferred_currency, dark_mode, avatar_path, updated_at
		FROM profiles LIMIT 1`).
		Scan(&p.ID, &p.Username, &currency, &p.DarkMode, &p.AvatarPath, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Profile{}, store.ErrNotFound
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
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

	_, err = s.pool.Exec(ctx, `INSERT INTO profiles (id, username, preferred_currency, dark_mode, avatar_path, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			preferred_currency = EXCLUDED.preferred_currency,
			dark_mode = EXCLUDED.dark_mode,
			avatar_path = EXCLUDED.avatar_path,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Username, string(p.PreferredCurrency), p.DarkMode, p.AvatarPath, p.UpdatedAt)
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		typ       string
		amountStr string
		currency  string
		date      time.Time
	)
	err := row.Scan(&t.ID, &typ, &amountStr, &currency, &t.CategoryID,
		&t.CategoryName, &t.Description, &date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TransactionType(typ)
	if t.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount: %w", err)
	}
	t.Currency = core.Currency(currency)
	t.Date = core.Date{Time: date}
	return t, nil
}
