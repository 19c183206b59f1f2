package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"riel/internal/core"
	"riel/internal/events"
	"riel/internal/services"
	"riel/internal/store"
	"riel/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	mem := memory.New()
	bus := events.NewBus()
	s := NewServer(Options{
		Addr:      ":0",
		Store:     mem,
		Ledger:    services.NewLedgerService(mem, bus, nil),
		Bus:       bus,
		Exchange:  core.DefaultExchange(),
		PageSize:  5,
		AvatarDir: t.TempDir(),
	})
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})
	return s
}

func postForm(s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := get(s, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d", rec.Code)
	}
	if rec := get(s, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("/readyz = %d", rec.Code)
	}
}

func TestDashboardRenders(t *testing.T) {
	s := newTestServer(t)

	rec := get(s, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Dashboard") {
		t.Error("expected dashboard page content")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	s := newTestServer(t)

	if rec := get(s, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCreateIncome(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"type": {"income"}, "amount": {"100"}, "currency": {"USD"},
		"date": {"2025-03-01"}, "description": {"salary"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if h := rec.Header().Get("HX-Trigger"); !strings.Contains(h, "transaction:created") {
		t.Errorf("HX-Trigger = %q", h)
	}
}

func TestCreateTransactionRejectsInvalidAmount(t *testing.T) {
	s := newTestServer(t)

	for _, amount := range []string{"0", "-5", "abc", ""} {
		rec := postForm(s, "/transactions", url.Values{
			"type": {"expense"}, "amount": {amount}, "currency": {"USD"},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("amount %q: status = %d, want 422", amount, rec.Code)
		}
	}
}

func TestCreateExpenseInsufficientFunds(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"type": {"income"}, "amount": {"50"}, "currency": {"USD"}, "date": {"2025-03-01"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed income: %d", rec.Code)
	}

	rec = postForm(s, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"75"}, "currency": {"USD"}, "date": {"2025-03-02"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "$50.00") || !strings.Contains(body, "$25.00") {
		t.Errorf("expected available and shortfall amounts, body = %q", body)
	}
}

func TestExpenseFundsCheckedPerCurrency(t *testing.T) {
	s := newTestServer(t)

	// A USD balance must not cover a KHR expense.
	rec := postForm(s, "/transactions", url.Values{
		"type": {"income"}, "amount": {"1000"}, "currency": {"USD"}, "date": {"2025-03-01"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed income: %d", rec.Code)
	}

	rec = postForm(s, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"4000"}, "currency": {"KHR"}, "date": {"2025-03-02"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"type": {"income"}, "amount": {"10"}, "currency": {"USD"}, "date": {"2025-03-01"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d", rec.Code)
	}

	txs, err := s.store.ListTransactions(context.Background(), store.TransactionFilter{})
	if err != nil || len(txs) != 1 {
		t.Fatalf("expected one transaction, err=%v", err)
	}

	rec = postForm(s, "/transactions/delete", url.Values{"id": {txs[0].ID.String()}})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}

	rec = postForm(s, "/transactions/delete", url.Values{"id": {uuid.NewString()}})
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete: %d, want 404", rec.Code)
	}
}

func TestTransactionListPagination(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 7; i++ {
		rec := postForm(s, "/transactions", url.Values{
			"type": {"income"}, "amount": {"10"}, "currency": {"USD"}, "date": {"2025-03-01"},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("seed %d: %d", i, rec.Code)
		}
	}

	rec := get(s, "/ui/transactions?type=income")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Load more") {
		t.Error("expected load-more control on first page")
	}

	rec = get(s, "/ui/transactions?type=income&offset=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Load more") {
		t.Error("last page should not offer load more")
	}
}

func TestStatsPartial(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"type": {"income"}, "amount": {"100"}, "currency": {"USD"}, "date": {"2025-03-01"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed: %d", rec.Code)
	}

	rec = get(s, "/ui/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "$100.00") {
		t.Errorf("expected USD income in stats, body = %q", body)
	}
	if !strings.Contains(body, "៛0") {
		t.Errorf("expected KHR zero balance, body = %q", body)
	}
}

func TestCategoryChartPartial(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/transactions", url.Values{
		"type": {"income"}, "amount": {"100"}, "currency": {"USD"}, "date": {"2025-03-01"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed income: %d", rec.Code)
	}
	rec = postForm(s, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"25"}, "currency": {"USD"},
		"date": {"2025-03-02"}, "description": {"groceries"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed expense: %d", rec.Code)
	}

	rec = get(s, "/ui/chart/categories?type=expense&currency=USD")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Uncategorized") {
		t.Errorf("expected uncategorized bucket, body = %q", rec.Body.String())
	}
}

func TestCreateCategory(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, "/categories", url.Values{"name": {"Books"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = postForm(s, "/categories", url.Values{"name": {"  "}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty name: %d, want 422", rec.Code)
	}
}

func TestProfileSaveAndRender(t *testing.T) {
	s := newTestServer(t)

	// Fresh install renders the empty profile state, not an error.
	rec := get(s, "/profile")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty profile page: %d", rec.Code)
	}

	rec = postForm(s, "/profile", url.Values{
		"username":           {"sokha"},
		"preferred_currency": {"KHR"},
		"dark_mode":          {"on"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save profile: %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = get(s, "/profile")
	if !strings.Contains(rec.Body.String(), "sokha") {
		t.Error("expected saved username on profile page")
	}
}

func TestMutationRequiresPOST(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := get(s, "/")
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}
