package amqp

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"riel/internal/core"
)

func TestNewExportMessage(t *testing.T) {
	tx := core.Transaction{
		ID:           uuid.New(),
		Type:         core.TypeExpense,
		Amount:       decimal.RequireFromString("12.50"),
		Currency:     core.USD,
		CategoryName: "Food",
		Description:  "lunch",
		Date:         core.NewDate(2025, 3, 14),
	}

	msg := NewExportMessage("created", tx)

	if msg.Action != "created" {
		t.Errorf("action = %q, want created", msg.Action)
	}
	if msg.ID != tx.ID {
		t.Errorf("id = %v, want %v", msg.ID, tx.ID)
	}
	if msg.Amount != "12.5" {
		t.Errorf("amount = %q, want 12.5", msg.Amount)
	}
	if msg.Date != "2025-03-14" {
		t.Errorf("date = %q, want 2025-03-14", msg.Date)
	}
	if msg.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestExportMessageJSONRoundTrip(t *testing.T) {
	original := &ExportMessage{
		Action:      "deleted",
		ID:          uuid.New(),
		Type:        "income",
		Amount:      "4000",
		Currency:    "KHR",
		Category:    "Salary",
		Description: "march pay",
		Date:        "2025-03-01",
		Timestamp:   time.Now().UTC().Truncate(time.Second),
	}

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := ExportMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ExportMessageFromJSON: %v", err)
	}

	if *decoded != *original {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestExportMessageFromJSONInvalid(t *testing.T) {
	if _, err := ExportMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
