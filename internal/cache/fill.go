package cache

import (
	"context"
	"log/slog"

	"simplebudget/internal/core"
)

// fillExpensesForMonth loads every day of the month with one single-day query
// per day and inserts the results as they arrive, so a partially filled month
// is already useful. Any query error aborts the task; the filled days stay.
func (s *Store) fillExpensesForMonth(ctx context.Context, monthStart core.Day, accountID int64, gen uint64) {
	if s.mem.hasExpensesDay(monthStart, accountID) {
		return
	}

	end := monthStart.EndOfMonth()
	for day := monthStart; !day.After(end); day = day.Next() {
		expenses, err := s.inner.ExpensesForDay(ctx, day, accountID)
		if err != nil {
			slog.ErrorContext(ctx, "Expense fill aborted",
				"month", monthStart.String(),
				"day", day.String(),
				"error", err)
			return
		}
		if !s.mem.putExpenses(gen, day, accountID, expenses) {
			return
		}
	}
}

// fillBalancesForMonth is the balance counterpart of fillExpensesForMonth.
func (s *Store) fillBalancesForMonth(ctx context.Context, monthStart core.Day, accountID int64, gen uint64) {
	if s.mem.hasBalanceDay(monthStart, accountID) {
		return
	}

	end := monthStart.EndOfMonth()
	for day := monthStart; !day.After(end); day = day.Next() {
		balance, err := s.inner.BalanceForDay(ctx, day, accountID)
		if err != nil {
			slog.ErrorContext(ctx, "Balance fill aborted",
				"month", monthStart.String(),
				"day", day.String(),
				"error", err)
			return
		}
		if !s.mem.putBalance(gen, day, accountID, balance) {
			return
		}
	}
}

// scheduleExpensesFill captures the generation at scheduling time. If a wipe
// lands before the task writes, its puts are discarded.
func (s *Store) scheduleExpensesFill(day core.Day, accountID int64) {
	monthStart := day.StartOfMonth()
	gen := s.mem.generation()
	s.exec.Execute(func() {
		s.fillExpensesForMonth(context.Background(), monthStart, accountID, gen)
	})
}

func (s *Store) scheduleBalancesFill(day core.Day, accountID int64) {
	monthStart := day.StartOfMonth()
	gen := s.mem.generation()
	s.exec.Execute(func() {
		s.fillBalancesForMonth(context.Background(), monthStart, accountID, gen)
	})
}
