package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"simplebudget/internal/cache"
	"simplebudget/internal/services"
	"simplebudget/internal/storage"
)

type syncExecutor struct{}

func (syncExecutor) Execute(task func()) { task() }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	sqlite, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	cached := cache.New(sqlite, syncExecutor{})
	expenses := services.NewExpenseService(cached, nil)
	budgets := services.NewBudgetService(cached)

	return NewServer("0", 0, cached, expenses, budgets, func() (int, int) { return cached.Stats() })
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestCreateExpenseAndDayView(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":  "Groceries",
		"amount": "25.99",
		"day":    "2026-09-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[expenseResponse](t, rec)
	if created.AmountCents != 2599 {
		t.Fatalf("amount_cents = %d, want 2599", created.AmountCents)
	}
	if created.CategoryID == 0 {
		t.Fatal("expense not routed to the miscellaneous category")
	}

	rec = doRequest(t, s, http.MethodGet, "/api/days/2026-09-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("day view status = %d, body %s", rec.Code, rec.Body.String())
	}
	view := decodeBody[map[string]any](t, rec)
	if view["has_expenses"] != true {
		t.Fatalf("has_expenses = %v", view["has_expenses"])
	}
	if view["balance_cents"].(float64) != 2599 {
		t.Fatalf("balance_cents = %v", view["balance_cents"])
	}

	// The miss scheduled a synchronous month fill, so the cache holds the
	// whole of September now.
	rec = doRequest(t, s, http.MethodGet, "/api/cache/stats", nil)
	stats := decodeBody[map[string]any](t, rec)
	if stats["expense_days"].(float64) != 30 {
		t.Fatalf("expense_days = %v, want 30", stats["expense_days"])
	}
}

func TestCreateExpenseRejectsBadAmount(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":  "Broken",
		"amount": "abc",
		"day":    "2026-09-01",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteExpense(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":  "Temp",
		"amount": "5.00",
		"day":    "2026-09-02",
	})
	created := decodeBody[expenseResponse](t, rec)

	rec = doRequest(t, s, http.MethodDelete, "/api/expenses/"+jsonNumber(created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/days/2026-09-02", nil)
	view := decodeBody[map[string]any](t, rec)
	if view["has_expenses"] != false {
		t.Fatal("expense still visible after delete")
	}
}

func TestAccountsFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/accounts", map[string]any{"name": "Savings"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Duplicate names are rejected.
	rec = doRequest(t, s, http.MethodPost, "/api/accounts", map[string]any{"name": "Savings"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate account status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPut, "/api/accounts/active", map[string]any{"name": "Savings"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set active status = %d, body %s", rec.Code, rec.Body.String())
	}
	active := decodeBody[map[string]any](t, rec)
	if active["Name"] != "Savings" {
		t.Fatalf("active account = %v", active)
	}
}

func TestCategoryGuardrails(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/categories", nil)
	categories := decodeBody[[]map[string]any](t, rec)
	if len(categories) != 1 {
		t.Fatalf("fresh install has %d categories, want 1", len(categories))
	}
	miscID := int64(categories[0]["ID"].(float64))

	rec = doRequest(t, s, http.MethodDelete, "/api/categories/"+jsonNumber(miscID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("deleting miscellaneous category status = %d, want 400", rec.Code)
	}
}

func TestBudgetFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	category := decodeBody[map[string]any](t, rec)
	categoryID := int64(category["ID"].(float64))

	rec = doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title":       "Groceries",
		"amount":      "40.00",
		"day":         "2026-09-05",
		"category_id": categoryID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodPost, "/api/budgets", map[string]any{
		"goal":         "Eat cheaper",
		"amount":       "300.00",
		"start_day":    "2026-09-01",
		"end_day":      "2026-09-30",
		"category_ids": []int64{categoryID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/months/2026-09/budgets", nil)
	budgets := decodeBody[[]budgetResponse](t, rec)
	if len(budgets) != 1 {
		t.Fatalf("got %d budgets, want 1", len(budgets))
	}
	if budgets[0].SpentCents != 4000 {
		t.Fatalf("spent_cents = %d, want 4000", budgets[0].SpentCents)
	}
	if budgets[0].RemainingCents != 26000 {
		t.Fatalf("remaining_cents = %d, want 26000", budgets[0].RemainingCents)
	}
}

func TestMonthOverview(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	category := decodeBody[map[string]any](t, rec)
	categoryID := int64(category["ID"].(float64))

	doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title": "Groceries", "amount": "40.00", "day": "2026-09-05", "category_id": categoryID,
	})
	doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title": "Cinema", "amount": "15.00", "day": "2026-09-06",
	})

	rec = doRequest(t, s, http.MethodGet, "/api/months/2026-09/overview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview status = %d, body %s", rec.Code, rec.Body.String())
	}
	overview := decodeBody[overviewResponse](t, rec)
	if overview.Year != 2026 || overview.Month != 9 {
		t.Fatalf("overview period = %d-%d", overview.Year, overview.Month)
	}
	if overview.TotalCents != 5500 {
		t.Fatalf("total_cents = %d, want 5500", overview.TotalCents)
	}
	if len(overview.ByCategory) != 2 || overview.ByCategory[0].Name != "Food" {
		t.Fatalf("by_category = %+v", overview.ByCategory)
	}
}

func TestSearchExpenses(t *testing.T) {
	s := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title": "Train ticket", "amount": "12.00", "day": "2026-09-03",
	})
	doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"title": "Coffee", "amount": "3.50", "day": "2026-09-03",
	})

	rec := doRequest(t, s, http.MethodGet, "/api/expenses/search?q=train", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	results := decodeBody[[]expenseResponse](t, rec)
	if len(results) != 1 || results[0].Title != "Train ticket" {
		t.Fatalf("search results = %+v", results)
	}
}

func jsonNumber(id int64) string {
	return strconv.FormatInt(id, 10)
}
