package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"riel/internal/core"
	"riel/internal/store"
)

// handleCreateTransaction records a new income or expense entry.
// Validation runs before any store call; expenses are additionally
// guarded by the same-currency funds check.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	form, msg := ParseTransactionForm(r.Form)
	if msg != "" {
		UnprocessableEntityError(msg).Write(w)
		return
	}
	t := form.Transaction

	// Expenses that would overdraw the same-currency balance are
	// rejected with the shortfall spelled out; income is never blocked.
	if t.Type == core.TypeExpense {
		check, err := s.ledger.CheckExpenseFunds(r.Context(), t.Amount, t.Currency)
		if err != nil {
			slog.ErrorContext(r.Context(), "Funds check failed", "error", err)
			InternalServerError("Could not verify balance").
				TriggerErrorNotification("Could not verify balance").
				Write(w)
			return
		}
		if !check.Sufficient {
			UnprocessableEntityError(check.Message).
				TriggerWarningNotification(check.Message).
				Write(w)
			return
		}
	}

	created, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed",
			"error", err,
			"transaction_type", t.Type,
			"amount", t.Amount.String(),
			"currency", t.Currency)
		InternalServerError("Could not save transaction").
			TriggerErrorNotification("Could not save transaction").
			Write(w)
		return
	}

	s.invalidateLedger()

	NewHTMXResponse().
		TriggerTransactionCreated(string(created.Type)).
		TriggerFormReset().
		TriggerSuccessNotification("Saved " + core.Format(created.Amount, created.Currency)).
		BodyHTML(`<div class="success">Recorded ` + template.HTMLEscapeString(core.Format(created.Amount, created.Currency)) + `</div>`).
		Write(w)
}

// handleUpdateTransaction applies a partial update: only submitted
// fields change.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := ParseID(r, "id")
	if !ok {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	patch, msg := parseTransactionPatch(r)
	if msg != "" {
		UnprocessableEntityError(msg).Write(w)
		return
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Update transaction failed", "error", err, "transaction_id", id)
		InternalServerError("Could not update transaction").
			TriggerErrorNotification("Could not update transaction").
			Write(w)
		return
	}

	s.invalidateLedger()

	NewHTMXResponse().
		TriggerTransactionUpdated(string(updated.Type)).
		TriggerSuccessNotification("Transaction updated").
		BodyHTML(`<div class="success">Updated</div>`).
		Write(w)
}

func parseTransactionPatch(r *http.Request) (store.TransactionPatch, string) {
	var p store.TransactionPatch

	if v := r.Form.Get("type"); v != "" {
		t, err := core.ParseTransactionType(v)
		if err != nil {
			return p, "Select income or expense"
		}
		p.Type = &t
	}
	if v := r.Form.Get("amount"); v != "" {
		amount, err := core.ParseAmount(v)
		if err != nil {
			return p, "Amount must be a positive number"
		}
		p.Amount = &amount
	}
	if v := r.Form.Get("currency"); v != "" {
		c, err := core.ParseCurrency(v)
		if err != nil {
			return p, "Currency must be USD or KHR"
		}
		p.Currency = &c
	}
	if v := r.Form.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return p, "Date must be YYYY-MM-DD"
		}
		p.Date = &d
	}
	if _, present := r.Form["description"]; present {
		desc := sanitizeInput(r.Form.Get("description"))
		if len(desc) > 200 {
			return p, "Description too long (max 200 characters)"
		}
		p.Description = &desc
	}
	if _, present := r.Form["category_id"]; present {
		if id, ok := ParseID(r, "category_id"); ok {
			p.CategoryID = &id
		} else {
			p.ClearCategory = true
		}
	}
	return p, ""
}

// handleDeleteTransaction permanently removes an entry. The client
// confirms before sending; the server deletes without further prompt.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := ParseID(r, "id")
	if !ok {
		BadRequestError("Missing transaction id").Write(w)
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("Transaction not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err, "transaction_id", id)
		InternalServerError("Could not delete transaction").
			TriggerErrorNotification("Could not delete transaction").
			Write(w)
		return
	}

	s.invalidateLedger()

	NewHTMXResponse().
		TriggerTransactionDeleted("").
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}

// transactionRow is one history list entry formatted for display.
type transactionRow struct {
	ID       string
	Type     core.TransactionType
	Amount   string
	Category string
	Desc     string
	Date     core.Date
}

// handleTransactionList renders a page of the history list with a
// "load more" cursor when further pages exist.
func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	params := ParsePageParams(r.URL.Query())
	filter := params.Filter(s.pageSize)

	txs, err := s.store.ListTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		InternalServerError("Could not load transactions").Write(w)
		return
	}

	total, err := s.store.CountTransactions(r.Context(), store.TransactionFilter{Type: params.Type})
	if err != nil {
		slog.ErrorContext(r.Context(), "Count transactions failed", "error", err)
		InternalServerError("Could not load transactions").Write(w)
		return
	}

	rows := make([]transactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, transactionRow{
			ID:       t.ID.String(),
			Type:     t.Type,
			Amount:   core.Format(t.Amount, t.Currency),
			Category: t.CategoryName,
			Desc:     t.Description,
			Date:     t.Date,
		})
	}

	nextOffset := params.Offset + len(txs)
	data := struct {
		Rows       []transactionRow
		Type       core.TransactionType
		NextOffset int
		HasMore    bool
		Empty      bool
	}{
		Rows:       rows,
		Type:       params.Type,
		NextOffset: nextOffset,
		HasMore:    nextOffset < total,
		Empty:      total == 0,
	}
	s.render(w, r, "transactions.html", data)
}
