// Package worker runs the ledger export consumer: it drains export
// messages from the queue and appends them to the spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"riel/internal/amqp"
	"riel/internal/sheets"
)

// ExportWorker appends consumed export messages to a ledger sheet.
type ExportWorker struct {
	appender sheets.LedgerAppender
}

func NewExportWorker(appender sheets.LedgerAppender) *ExportWorker {
	return &ExportWorker{appender: appender}
}

// HandleExportMessage appends one message as a ledger row. An error
// lets the consumer decide between redelivery and drop.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	entry := sheets.Entry{
		Action:      msg.Action,
		ID:          msg.ID.String(),
		Type:        msg.Type,
		Amount:      msg.Amount,
		Currency:    msg.Currency,
		Category:    msg.Category,
		Description: msg.Description,
		Date:        msg.Date,
		Timestamp:   msg.Timestamp.Format("2006-01-02 15:04:05"),
	}

	ref, err := w.appender.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger entry",
		"action", msg.Action,
		"transaction_id", msg.ID,
		"sheets_ref", ref)
	return nil
}
