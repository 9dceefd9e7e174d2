package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"simplebudget/internal/log"
	"simplebudget/internal/services"
	"simplebudget/internal/storage"
)

// Server exposes the budget API over HTTP. All reads go through the cached
// store handed in by the caller; expense writes go through the service so
// change events are published.
type Server struct {
	httpServer *http.Server
	store      storage.Store
	expenses   *services.ExpenseService
	budgets    *services.BudgetService
	cacheStats func() (expenseDays, balanceDays int)
}

func NewServer(port string, requestsPerMinute int, store storage.Store, expenses *services.ExpenseService, budgets *services.BudgetService, cacheStats func() (int, int)) *Server {
	s := &Server{
		store:      store,
		expenses:   expenses,
		budgets:    budgets,
		cacheStats: cacheStats,
	}

	handler := s.routes()
	if requestsPerMinute > 0 {
		handler = newRateLimiter(requestsPerMinute).middleware(handler)
	}

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      log.RequestLogger(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/days/{day}", s.handleDayView)
	mux.HandleFunc("GET /api/months/{month}/expenses", s.handleMonthExpenses)
	mux.HandleFunc("GET /api/months/{month}/overview", s.handleMonthOverview)
	mux.HandleFunc("GET /api/months/{month}/budgets", s.handleMonthBudgets)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/expenses/search", s.handleSearchExpenses)

	mux.HandleFunc("POST /api/recurring-expenses", s.handleCreateRecurringExpense)
	mux.HandleFunc("DELETE /api/recurring-expenses/{id}", s.handleDeleteRecurringExpense)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PUT /api/accounts/active", s.handleSetActiveAccount)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)

	return mux
}

func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
