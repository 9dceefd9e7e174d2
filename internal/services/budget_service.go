package services

import (
	"context"
	"fmt"
	"log/slog"

	"simplebudget/internal/core"
	"simplebudget/internal/storage"
)

// BudgetService keeps budget spent amounts in line with the expense table.
type BudgetService struct {
	store storage.Store
}

func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

// RecomputeForDay recomputes the budgets of the account that overlap the
// month the day falls in. This is the handler behind expense change events.
func (s *BudgetService) RecomputeForDay(ctx context.Context, day core.Day, accountID int64) error {
	start := day.StartOfMonth()
	if err := s.store.RecomputeBudgetsSpent(ctx, start, start.EndOfMonth(), accountID); err != nil {
		return fmt.Errorf("recompute budgets for day %s: %w", day, err)
	}
	return nil
}

// RecomputeAll recomputes every account's budgets from the oldest budget
// start to the end of the current month. Run nightly as a safety net for
// lost events.
func (s *BudgetService) RecomputeAll(ctx context.Context) error {
	oldest, err := s.store.OldestBudgetStartDay(ctx)
	if err != nil {
		return fmt.Errorf("get oldest budget start: %w", err)
	}
	if oldest == nil {
		return nil
	}

	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("get accounts: %w", err)
	}

	end := core.Today().EndOfMonth()
	for _, account := range accounts {
		if err := s.store.RecomputeBudgetsSpent(ctx, *oldest, end, account.ID); err != nil {
			return fmt.Errorf("recompute budgets for account %d: %w", account.ID, err)
		}
	}
	return nil
}

// MaterializeRecurring creates the month's budget for every account that has
// a recurring budget and no budget for that month yet. Category links are
// copied from the previous month's instance when one exists.
func (s *BudgetService) MaterializeRecurring(ctx context.Context, monthStart core.Day) (int, error) {
	monthStart = monthStart.StartOfMonth()

	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("get accounts: %w", err)
	}

	created := 0
	for _, account := range accounts {
		recurring, err := s.store.RecurringBudgetForAccount(ctx, account.ID)
		if err != nil {
			return created, fmt.Errorf("get recurring budget for account %d: %w", account.ID, err)
		}
		if recurring == nil {
			continue
		}

		existing, err := s.store.BudgetsForMonth(ctx, monthStart, account.ID)
		if err != nil {
			return created, fmt.Errorf("get budgets for month: %w", err)
		}
		if hasInstance(existing, recurring.ID) {
			continue
		}

		budget := core.Budget{
			Goal:            recurring.Goal,
			AccountID:       account.ID,
			BudgetAmount:    recurring.BudgetAmount,
			RemainingAmount: recurring.BudgetAmount,
			StartDay:        monthStart,
			EndDay:          monthStart.EndOfMonth(),
			RecurringID:     recurring.ID,
			CategoryIDs:     s.previousCategories(ctx, monthStart, account.ID, recurring.ID),
		}

		if _, err := s.store.PersistBudget(ctx, budget); err != nil {
			return created, fmt.Errorf("persist budget for account %d: %w", account.ID, err)
		}

		created++
		slog.InfoContext(ctx, "Materialized recurring budget",
			"account_id", account.ID,
			"recurring_id", recurring.ID,
			"month", monthStart.String())
	}

	return created, nil
}

func (s *BudgetService) previousCategories(ctx context.Context, monthStart core.Day, accountID, recurringID int64) []int64 {
	previous := monthStart.AddDays(-1).StartOfMonth()
	budgets, err := s.store.BudgetsForMonth(ctx, previous, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load previous month budgets",
			"account_id", accountID,
			"error", err)
		return nil
	}
	for _, b := range budgets {
		if b.RecurringID == recurringID {
			return b.CategoryIDs
		}
	}
	return nil
}

func hasInstance(budgets []core.Budget, recurringID int64) bool {
	for _, b := range budgets {
		if b.RecurringID == recurringID {
			return true
		}
	}
	return false
}
