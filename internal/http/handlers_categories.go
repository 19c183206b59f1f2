package http

import (
	"html/template"
	"log/slog"
	"net/http"

	"riel/internal/core"
)

// handleCreateCategory adds a user category to the default set.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	c := core.Category{Name: sanitizeInput(r.Form.Get("name"))}
	if err := c.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err, "category", c.Name)
		InternalServerError("Could not save category").
			TriggerErrorNotification("Could not save category").
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerCategoryCreated().
		TriggerFormReset().
		TriggerSuccessNotification("Category added").
		BodyHTML(`<div class="success">Added ` + template.HTMLEscapeString(created.Name) + `</div>`).
		Write(w)
}
