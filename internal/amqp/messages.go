package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"riel/internal/core"
)

// ExportMessage carries one ledger mutation to the export worker. It
// is self-contained: the worker appends the row without a store
// lookup, so deletes export the same way as creates.
type ExportMessage struct {
	Action      string    `json:"action"` // created, updated, deleted
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExportMessage builds an export message from a transaction.
func NewExportMessage(action string, t core.Transaction) *ExportMessage {
	return &ExportMessage{
		Action:      action,
		ID:          t.ID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Currency:    string(t.Currency),
		Category:    t.CategoryName,
		Description: t.Description,
		Date:        t.Date.Format("2006-01-02"),
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportMessageFromJSON creates a message from JSON bytes
func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
