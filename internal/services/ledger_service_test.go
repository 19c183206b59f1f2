package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"riel/internal/amqp"
	"riel/internal/core"
	"riel/internal/events"
	"riel/internal/store"
	"riel/internal/store/memory"
)

type capturingPublisher struct {
	messages []*amqp.ExportMessage
	err      error
}

func (p *capturingPublisher) PublishExport(_ context.Context, msg *amqp.ExportMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func validTransaction() core.Transaction {
	return core.Transaction{
		Type:        core.TypeIncome,
		Amount:      decimal.RequireFromString("100"),
		Currency:    core.USD,
		Description: "salary",
		Date:        core.NewDate(2025, 3, 1),
	}
}

func TestCreateTransactionPublishesEventAndExport(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	pub := &capturingPublisher{}
	svc := NewLedgerService(memory.New(), bus, pub)

	created, err := svc.CreateTransaction(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("expected assigned ID")
	}

	e := <-ch
	if e.Entity != events.EntityTransaction || e.Kind != events.Created {
		t.Errorf("event = %+v, want transaction/created", e)
	}
	if e.ID != created.ID {
		t.Errorf("event ID = %v, want %v", e.ID, created.ID)
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published %d export messages, want 1", len(pub.messages))
	}
	if pub.messages[0].Action != "created" {
		t.Errorf("export action = %q, want created", pub.messages[0].Action)
	}
}

func TestCreateTransactionRejectsInvalid(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewLedgerService(memory.New(), events.NewBus(), pub)

	tx := validTransaction()
	tx.Amount = decimal.Zero

	_, err := svc.CreateTransaction(context.Background(), tx)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if len(pub.messages) != 0 {
		t.Error("invalid transaction must not publish export messages")
	}
}

func TestCreateTransactionSurvivesPublishFailure(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := NewLedgerService(memory.New(), events.NewBus(), pub)

	if _, err := svc.CreateTransaction(context.Background(), validTransaction()); err != nil {
		t.Fatalf("publish failure must not fail the request, got: %v", err)
	}
}

func TestCreateTransactionWithoutPublisher(t *testing.T) {
	svc := NewLedgerService(memory.New(), events.NewBus(), nil)

	if _, err := svc.CreateTransaction(context.Background(), validTransaction()); err != nil {
		t.Fatalf("CreateTransaction without publisher: %v", err)
	}
}

func TestUpdateTransaction(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewLedgerService(memory.New(), events.NewBus(), pub)

	created, err := svc.CreateTransaction(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	desc := "updated salary"
	updated, err := svc.UpdateTransaction(context.Background(), created.ID, store.TransactionPatch{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Description != desc {
		t.Errorf("description = %q, want %q", updated.Description, desc)
	}

	if len(pub.messages) != 2 || pub.messages[1].Action != "updated" {
		t.Errorf("expected create+update export messages, got %d", len(pub.messages))
	}
}

func TestDeleteTransactionExportsDeletedContent(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewLedgerService(memory.New(), events.NewBus(), pub)

	created, err := svc.CreateTransaction(context.Background(), validTransaction())
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := svc.DeleteTransaction(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	last := pub.messages[len(pub.messages)-1]
	if last.Action != "deleted" {
		t.Errorf("action = %q, want deleted", last.Action)
	}
	if last.Amount != "100" {
		t.Errorf("deleted export should carry the row content, amount = %q", last.Amount)
	}
}

func TestDeleteTransactionNotFound(t *testing.T) {
	svc := NewLedgerService(memory.New(), events.NewBus(), nil)

	err := svc.DeleteTransaction(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCheckExpenseFunds(t *testing.T) {
	svc := NewLedgerService(memory.New(), events.NewBus(), nil)
	ctx := context.Background()

	income := validTransaction()
	income.Amount = decimal.RequireFromString("50")
	if _, err := svc.CreateTransaction(ctx, income); err != nil {
		t.Fatalf("seed income: %v", err)
	}

	tests := []struct {
		name       string
		amount     string
		currency   core.Currency
		sufficient bool
	}{
		{"within balance", "50", core.USD, true},
		{"over balance", "75", core.USD, false},
		{"other currency has no funds", "1", core.KHR, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := svc.CheckExpenseFunds(ctx, decimal.RequireFromString(tt.amount), tt.currency)
			if err != nil {
				t.Fatalf("CheckExpenseFunds: %v", err)
			}
			if check.Sufficient != tt.sufficient {
				t.Errorf("sufficient = %v, want %v", check.Sufficient, tt.sufficient)
			}
		})
	}
}

func TestCheckExpenseFundsMessage(t *testing.T) {
	svc := NewLedgerService(memory.New(), events.NewBus(), nil)
	ctx := context.Background()

	income := validTransaction()
	income.Amount = decimal.RequireFromString("50")
	if _, err := svc.CreateTransaction(ctx, income); err != nil {
		t.Fatalf("seed income: %v", err)
	}

	check, err := svc.CheckExpenseFunds(ctx, decimal.RequireFromString("75"), core.USD)
	if err != nil {
		t.Fatalf("CheckExpenseFunds: %v", err)
	}
	if check.Sufficient {
		t.Fatal("expected insufficient funds")
	}
	if !strings.Contains(check.Message, "$50.00") || !strings.Contains(check.Message, "$25.00") {
		t.Errorf("message should name available and shortfall, got %q", check.Message)
	}
}

func TestCreateCategoryAndSaveProfile(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	svc := NewLedgerService(memory.New(), bus, nil)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, core.Category{Name: "Books"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if e := <-ch; e.Entity != events.EntityCategory || e.ID != cat.ID {
		t.Errorf("unexpected category event: %+v", e)
	}

	if _, err := svc.CreateCategory(ctx, core.Category{Name: "  "}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}

	profile, err := svc.SaveProfile(ctx, core.Profile{Username: "sokha", PreferredCurrency: core.KHR, DarkMode: true})
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if e := <-ch; e.Entity != events.EntityProfile || e.ID != profile.ID {
		t.Errorf("unexpected profile event: %+v", e)
	}
}
