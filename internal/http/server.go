package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"riel/internal/cache"
	"riel/internal/core"
	"riel/internal/events"
	"riel/internal/services"
	"riel/internal/store"
	appweb "riel/web"
)

// Options carries the server's collaborators and settings.
type Options struct {
	Addr      string
	Store     store.Store
	Ledger    *services.LedgerService
	Bus       *events.Bus
	Exchange  core.Exchange
	PageSize  int
	AvatarDir string
}

type Server struct {
	http.Server
	templates *template.Template
	store     store.Store
	ledger    *services.LedgerService
	bus       *events.Bus
	exchange  core.Exchange
	pageSize  int
	avatarDir string

	rateLimiter *rateLimiter
	hub         *wsHub

	// Cached unfiltered transaction list feeding the summary cards and
	// chart partials. Purged on every mutation.
	ledgerCache *cache.LRU[[]core.Transaction]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		store:            opts.Store,
		ledger:           opts.Ledger,
		bus:              opts.Bus,
		exchange:         opts.Exchange,
		pageSize:         opts.PageSize,
		avatarDir:        opts.AvatarDir,
		rateLimiter:      newRateLimiter(),
		hub:              newWSHub(opts.Bus),
		ledgerCache:      cache.NewLRU[[]core.Transaction](8, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	t, err := template.New("").Funcs(s.funcMap()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	// Uploaded avatars are served from local disk.
	if s.avatarDir != "" {
		mux.Handle("/avatars/", http.StripPrefix("/avatars/",
			http.FileServer(http.Dir(s.avatarDir))))
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/expenses", s.withSecurityHeaders(s.handleExpensesPage))
	mux.HandleFunc("/income", s.withSecurityHeaders(s.handleIncomePage))
	mux.HandleFunc("/profile", s.withSecurityHeaders(s.handleProfile))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("/transactions/update", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("/transactions/delete", s.withSecurityHeaders(s.handleDeleteTransaction))
	mux.HandleFunc("/categories", s.withSecurityHeaders(s.handleCreateCategory))

	// UI partials
	mux.HandleFunc("/ui/stats", s.withSecurityHeaders(s.handleStats))
	mux.HandleFunc("/ui/transactions", s.withSecurityHeaders(s.handleTransactionList))
	mux.HandleFunc("/ui/chart/categories", s.withSecurityHeaders(s.handleCategoryChart))
	mux.HandleFunc("/ui/chart/days", s.withSecurityHeaders(s.handleDayChart))

	mux.HandleFunc("/ws", s.handleWebSocket)

	return s
}

func (s *Server) funcMap() template.FuncMap {
	return template.FuncMap{
		"money": func(amount decimal.Decimal, c core.Currency) string {
			return core.Format(amount, c)
		},
		"date": func(d core.Date) string {
			return d.Format("Jan 2, 2006")
		},
		"isoDate": func(d core.Date) string {
			return d.Format("2006-01-02")
		},
	}
}

// ledgerTransactions returns the full unfiltered transaction list,
// cached between mutations.
func (s *Server) ledgerTransactions(ctx context.Context) ([]core.Transaction, error) {
	const key = "all"
	if txs, ok := s.ledgerCache.Get(key); ok {
		return txs, nil
	}

	txs, err := s.store.ListTransactions(ctx, store.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	s.ledgerCache.Set(key, txs)
	return txs, nil
}

// invalidateLedger drops cached aggregates after a mutation.
func (s *Server) invalidateLedger() {
	s.ledgerCache.Purge()
}

// startCacheCleanup runs periodic cleanup for the ledger cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.ledgerCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		s.hub.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// render executes a template, logging failures. Partials write their
// own error body on failure so HTMX swaps stay well-formed.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed",
			"error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
