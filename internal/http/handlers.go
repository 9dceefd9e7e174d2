package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"simplebudget/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.EnsureCreated(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveAccount returns the account_id query parameter when present,
// otherwise the active account.
func (s *Server) resolveAccount(r *http.Request) (int64, error) {
	if v := strings.TrimSpace(r.URL.Query().Get("account_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return 0, fmt.Errorf("invalid account_id %q", v)
		}
		return id, nil
	}

	active, err := s.store.ActiveAccount(r.Context())
	if err != nil {
		return 0, fmt.Errorf("resolve active account: %w", err)
	}
	return active.ID, nil
}

func (s *Server) handleDayView(w http.ResponseWriter, r *http.Request) {
	day, err := pathDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := s.resolveAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	expenses, err := s.store.ExpensesForDay(ctx, day, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	balance, err := s.store.BalanceForDay(ctx, day, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	hasExpenses, err := s.store.HasExpenseForDay(ctx, day, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"day":           day.String(),
		"account_id":    accountID,
		"has_expenses":  hasExpenses,
		"balance_cents": balance.Cents,
		"balance":       balance.String(),
		"expenses":      toExpenseResponses(expenses),
	})
}

func (s *Server) handleMonthExpenses(w http.ResponseWriter, r *http.Request) {
	monthStart, err := pathMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := s.resolveAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	expenses, err := s.store.ExpensesForMonth(r.Context(), monthStart, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(expenses))
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	monthStart, err := pathMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := s.resolveAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	expenses, err := s.store.ExpensesForMonth(ctx, monthStart, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	categories, err := s.store.Categories(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	writeJSON(w, http.StatusOK, toOverviewResponse(core.SummarizeMonth(monthStart, expenses, names)))
}

func (s *Server) handleMonthBudgets(w http.ResponseWriter, r *http.Request) {
	monthStart, err := pathMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := s.resolveAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	budgets, err := s.store.BudgetsForMonth(r.Context(), monthStart, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid amount %q", req.Amount))
		return
	}
	day, err := core.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	accountID := req.AccountID
	if accountID == 0 {
		accountID, err = s.resolveAccount(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	created, err := s.expenses.CreateExpense(r.Context(), core.Expense{
		Title:      req.Title,
		Amount:     core.Money{Cents: cents},
		Day:        day,
		CategoryID: req.CategoryID,
		AccountID:  accountID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), core.Expense{ID: id}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchExpenses(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing query parameter q"))
		return
	}
	accountID, err := s.resolveAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	expenses, err := s.store.SearchExpenses(r.Context(), query, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(expenses))
}

func (s *Server) handleCreateRecurringExpense(w http.ResponseWriter, r *http.Request) {
	var req createRecurringExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid amount %q", req.Amount))
		return
	}
	startDay, err := core.ParseDay(req.StartDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	accountID := req.AccountID
	if accountID == 0 {
		accountID, err = s.resolveAccount(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	template := core.RecurringExpense{
		Title:      req.Title,
		Amount:     core.Money{Cents: cents},
		StartDay:   startDay,
		Type:       core.RecurrenceType(req.Type),
		CategoryID: req.CategoryID,
		AccountID:  accountID,
	}
	if err := template.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := s.store.PersistRecurringExpense(r.Context(), template)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": created.ID})
}

func (s *Server) handleDeleteRecurringExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if err := s.store.DeleteExpensesForRecurring(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.DeleteRecurringExpense(ctx, core.RecurringExpense{ID: id}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.Accounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("account name cannot be empty"))
		return
	}

	ctx := r.Context()
	exists, err := s.store.AccountExists(ctx, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if exists {
		writeError(w, http.StatusConflict, fmt.Errorf("account %q already exists", req.Name))
		return
	}

	created, err := s.store.PersistAccount(ctx, core.Account{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSetActiveAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	switch {
	case req.ID > 0:
		err := s.store.SetActiveAccount(ctx, req.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case strings.TrimSpace(req.Name) != "":
		err := s.store.SetActiveAccountByName(ctx, strings.TrimSpace(req.Name))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, errors.New("either id or name is required"))
		return
	}

	active, err := s.store.ActiveAccount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, errors.New("category name cannot be empty"))
		return
	}

	created, err := s.store.PersistCategory(r.Context(), core.Category{Name: strings.TrimSpace(req.Name)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	category, err := s.store.Category(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if category.Name == core.MiscellaneousCategory {
		writeError(w, http.StatusBadRequest, errors.New("the miscellaneous category cannot be deleted"))
		return
	}

	if err := s.store.DeleteCategory(ctx, category); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid amount %q", req.Amount))
		return
	}
	startDay, err := core.ParseDay(req.StartDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	endDay, err := core.ParseDay(req.EndDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	accountID := req.AccountID
	if accountID == 0 {
		accountID, err = s.resolveAccount(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	budget := core.Budget{
		Goal:            req.Goal,
		AccountID:       accountID,
		BudgetAmount:    core.Money{Cents: cents},
		RemainingAmount: core.Money{Cents: cents},
		StartDay:        startDay,
		EndDay:          endDay,
		CategoryIDs:     req.CategoryIDs,
	}
	if err := budget.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := s.store.PersistBudget(r.Context(), budget)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Seed the spent amount from existing expenses right away.
	if err := s.budgets.RecomputeForDay(r.Context(), startDay, accountID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.store.DeleteBudget(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cacheStats == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	expenseDays, balanceDays := s.cacheStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":      true,
		"expense_days": expenseDays,
		"balance_days": balanceDays,
	})
}
