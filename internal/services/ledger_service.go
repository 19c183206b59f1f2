// Package services orchestrates ledger operations: validate, persist,
// then signal. The store is the source of truth; bus events and export
// messages are emitted only after a successful write, and neither can
// fail a request.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"riel/internal/amqp"
	"riel/internal/core"
	"riel/internal/events"
	"riel/internal/store"
)

// ExportPublisher is the outbound port for the ledger export. A nil
// publisher disables export entirely.
type ExportPublisher interface {
	PublishExport(ctx context.Context, msg *amqp.ExportMessage) error
}

// LedgerService orchestrates writes across the store, the event bus
// and the export queue.
type LedgerService struct {
	store     store.Store
	bus       *events.Bus
	publisher ExportPublisher
}

func NewLedgerService(st store.Store, bus *events.Bus, publisher ExportPublisher) *LedgerService {
	return &LedgerService{
		store:     st,
		bus:       bus,
		publisher: publisher,
	}
}

// CreateTransaction validates and persists a transaction, then emits
// the change signal and export message.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.notify(ctx, events.EntityTransaction, events.Created, created.ID)
	s.publishExport(ctx, "created", created)
	return created, nil
}

// UpdateTransaction applies a partial update and emits signals for the
// new state.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id uuid.UUID, p store.TransactionPatch) (core.Transaction, error) {
	updated, err := s.store.UpdateTransaction(ctx, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.notify(ctx, events.EntityTransaction, events.Updated, updated.ID)
	s.publishExport(ctx, "updated", updated)
	return updated, nil
}

// DeleteTransaction removes a transaction. The record is read first so
// the export message can carry the deleted row's content.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.notify(ctx, events.EntityTransaction, events.Deleted, id)
	s.publishExport(ctx, "deleted", deleted)
	return nil
}

// CreateCategory validates and persists a user category.
func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.notify(ctx, events.EntityCategory, events.Created, created.ID)
	return created, nil
}

// SaveProfile validates and upserts the profile.
func (s *LedgerService) SaveProfile(ctx context.Context, p core.Profile) (core.Profile, error) {
	if err := p.Validate(); err != nil {
		return core.Profile{}, err
	}

	saved, err := s.store.SaveProfile(ctx, p)
	if err != nil {
		return core.Profile{}, fmt.Errorf("save profile: %w", err)
	}

	s.notify(ctx, events.EntityProfile, events.Updated, saved.ID)
	return saved, nil
}

// CheckExpenseFunds compares a proposed expense against the available
// balance in the same currency. Income is never checked; the store
// itself does not enforce non-negative balances.
func (s *LedgerService) CheckExpenseFunds(ctx context.Context, amount decimal.Decimal, currency core.Currency) (core.FundsCheck, error) {
	txs, err := s.store.ListTransactions(ctx, store.TransactionFilter{})
	if err != nil {
		return core.FundsCheck{}, fmt.Errorf("list transactions: %w", err)
	}

	summary := core.Summarize(txs)
	return core.CheckFunds(summary.Balance(currency), amount, currency), nil
}

func (s *LedgerService) notify(_ context.Context, entity events.Entity, kind events.Kind, id uuid.UUID) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.DataChanged{Entity: entity, Kind: kind, ID: id})
}

func (s *LedgerService) publishExport(ctx context.Context, action string, t core.Transaction) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.PublishExport(ctx, amqp.NewExportMessage(action, t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"action", action,
			"transaction_id", t.ID,
			"error", err)
		// Don't fail the request - the store write succeeded
	}
}
