package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"riel/internal/core"
	"riel/internal/store"
)

// pageData is the shared payload for full page renders.
type pageData struct {
	Page       string
	Profile    core.Profile
	Categories []core.Category
	FormType   core.TransactionType
}

// loadPageData assembles profile and categories for a page render. A
// missing profile is an expected empty state.
func (s *Server) loadPageData(r *http.Request, page string) pageData {
	data := pageData{Page: page}

	profile, err := s.store.GetProfile(r.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Load profile failed", "error", err)
	}
	data.Profile = profile

	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
	}
	data.Categories = cats

	return data
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "dashboard.html", s.loadPageData(r, "dashboard"))
}

func (s *Server) handleExpensesPage(w http.ResponseWriter, r *http.Request) {
	data := s.loadPageData(r, "expenses")
	data.FormType = core.TypeExpense
	s.render(w, r, "expenses.html", data)
}

func (s *Server) handleIncomePage(w http.ResponseWriter, r *http.Request) {
	data := s.loadPageData(r, "income")
	data.FormType = core.TypeIncome
	s.render(w, r, "income.html", data)
}

// statCard is one currency's totals, formatted for display.
type statCard struct {
	Currency core.Currency
	Income   string
	Expense  string
	Balance  string
	Negative bool
}

// handleStats renders the per-currency stat cards partial. USD and KHR
// are presented side by side, never summed.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledgerTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Stats load failed", "error", err)
		InternalServerError("Could not load balances").Write(w)
		return
	}

	summary := core.Summarize(txs)
	data := struct {
		Cards []statCard
	}{
		Cards: []statCard{
			newStatCard(core.USD, summary.USD),
			newStatCard(core.KHR, summary.KHR),
		},
	}
	s.render(w, r, "stats.html", data)
}

func newStatCard(c core.Currency, t core.CurrencyTotals) statCard {
	return statCard{
		Currency: c,
		Income:   core.Format(t.Income, c),
		Expense:  core.Format(t.Expense, c),
		Balance:  core.Format(t.Balance, c),
		Negative: t.Balance.Sign() < 0,
	}
}

// chartRow is one bar of a chart partial; Width is a rounded percent
// of the largest value so bars scale relative to each other.
type chartRow struct {
	Label  string
	Amount string
	Width  int
}

// handleCategoryChart renders expense (or income) totals grouped by
// category, converted to the requested display currency.
func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	txType := core.TypeExpense
	if t, err := core.ParseTransactionType(r.URL.Query().Get("type")); err == nil {
		txType = t
	}
	display := ParseDisplayCurrency(r.URL.Query())

	txs, err := s.ledgerTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Category chart load failed", "error", err)
		InternalServerError("Could not load chart").Write(w)
		return
	}

	groups := core.GroupByCategory(txs, txType, s.exchange, display)

	var max = core.CategoryAmount{}
	for _, g := range groups {
		if g.Amount.GreaterThan(max.Amount) {
			max = g
		}
	}

	rows := make([]chartRow, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, chartRow{
			Label:  g.Name,
			Amount: core.Format(g.Amount, display),
			Width:  barWidth(g.Amount, max.Amount),
		})
	}

	data := struct {
		Type     core.TransactionType
		Currency core.Currency
		Rows     []chartRow
	}{Type: txType, Currency: display, Rows: rows}
	s.render(w, r, "chart_categories.html", data)
}

// handleDayChart renders daily totals over the trailing 30 days.
func (s *Server) handleDayChart(w http.ResponseWriter, r *http.Request) {
	txType := core.TypeExpense
	if t, err := core.ParseTransactionType(r.URL.Query().Get("type")); err == nil {
		txType = t
	}
	display := ParseDisplayCurrency(r.URL.Query())

	txs, err := s.ledgerTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Day chart load failed", "error", err)
		InternalServerError("Could not load chart").Write(w)
		return
	}

	from, to := core.LastNDays(30, time.Now().UTC())
	days := core.GroupByDay(txs, txType, s.exchange, display, from, to)

	var max = core.DayAmount{}
	for _, d := range days {
		if d.Amount.GreaterThan(max.Amount) {
			max = d
		}
	}

	rows := make([]chartRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, chartRow{
			Label:  d.Day.Format("Jan 2"),
			Amount: core.Format(d.Amount, display),
			Width:  barWidth(d.Amount, max.Amount),
		})
	}

	data := struct {
		Type     core.TransactionType
		Currency core.Currency
		Rows     []chartRow
	}{Type: txType, Currency: display, Rows: rows}
	s.render(w, r, "chart_days.html", data)
}
