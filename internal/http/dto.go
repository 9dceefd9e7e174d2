package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"simplebudget/internal/core"
)

type expenseResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Day         string `json:"day"`
	CategoryID  int64  `json:"category_id"`
	AccountID   int64  `json:"account_id"`
	RecurringID int64  `json:"recurring_id,omitempty"`
	Income      bool   `json:"income"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Amount:      e.Amount.String(),
		Day:         e.Day.String(),
		CategoryID:  e.CategoryID,
		AccountID:   e.AccountID,
		RecurringID: e.RecurringID,
		Income:      e.IsIncome(),
	}
}

func toExpenseResponses(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

type budgetResponse struct {
	ID             int64   `json:"id"`
	Goal           string  `json:"goal"`
	AccountID      int64   `json:"account_id"`
	BudgetCents    int64   `json:"budget_cents"`
	SpentCents     int64   `json:"spent_cents"`
	RemainingCents int64   `json:"remaining_cents"`
	StartDay       string  `json:"start_day"`
	EndDay         string  `json:"end_day"`
	RecurringID    int64   `json:"recurring_id,omitempty"`
	CategoryIDs    []int64 `json:"category_ids"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:             b.ID,
		Goal:           b.Goal,
		AccountID:      b.AccountID,
		BudgetCents:    b.BudgetAmount.Cents,
		SpentCents:     b.SpentAmount.Cents,
		RemainingCents: b.RemainingAmount.Cents,
		StartDay:       b.StartDay.String(),
		EndDay:         b.EndDay.String(),
		RecurringID:    b.RecurringID,
		CategoryIDs:    b.CategoryIDs,
	}
}

type categoryAmountResponse struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type overviewResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	TotalCents int64                    `json:"total_cents"`
	Total      string                   `json:"total"`
	ByCategory []categoryAmountResponse `json:"by_category"`
}

func toOverviewResponse(o core.MonthOverview) overviewResponse {
	byCategory := make([]categoryAmountResponse, 0, len(o.ByCategory))
	for _, c := range o.ByCategory {
		byCategory = append(byCategory, categoryAmountResponse{
			Name:        c.Name,
			AmountCents: c.Amount.Cents,
			Amount:      c.Amount.String(),
		})
	}
	return overviewResponse{
		Year:       o.Year,
		Month:      o.Month,
		TotalCents: o.Total.Cents,
		Total:      o.Total.String(),
		ByCategory: byCategory,
	}
}

type createExpenseRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Day        string `json:"day"`
	CategoryID int64  `json:"category_id"`
	AccountID  int64  `json:"account_id"`
}

type createRecurringExpenseRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	StartDay   string `json:"start_day"`
	Type       string `json:"type"`
	CategoryID int64  `json:"category_id"`
	AccountID  int64  `json:"account_id"`
}

type createBudgetRequest struct {
	Goal        string  `json:"goal"`
	Amount      string  `json:"amount"`
	AccountID   int64   `json:"account_id"`
	StartDay    string  `json:"start_day"`
	EndDay      string  `json:"end_day"`
	CategoryIDs []int64 `json:"category_ids"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func pathDay(r *http.Request) (core.Day, error) {
	return core.ParseDay(r.PathValue("day"))
}

// pathMonth parses a {month} path segment formatted as 2006-01 and returns
// the first day of that month.
func pathMonth(r *http.Request) (core.Day, error) {
	t, err := time.Parse("2006-01", r.PathValue("month"))
	if err != nil {
		return core.Day{}, fmt.Errorf("parse month %q: %w", r.PathValue("month"), err)
	}
	return core.DayOf(t).StartOfMonth(), nil
}
