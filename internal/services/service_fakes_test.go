package services

import (
	"context"
	"sync"

	"simplebudget/internal/amqp"
	"simplebudget/internal/core"
	"simplebudget/internal/storage"
)

// serviceFakeStore implements the slice of the store the services touch.
// Unimplemented methods panic through the embedded nil interface.
type serviceFakeStore struct {
	storage.Store

	mu               sync.Mutex
	nextID           int64
	misc             core.Category
	accounts         []core.Account
	templates        []core.RecurringExpense
	materializedDays map[int64]core.Day
	persisted        []core.Expense
	deleted          []int64
	recurringBudgets map[int64]*core.RecurringBudget
	budgets          []core.Budget
	oldestBudget     *core.Day
	recomputes       []int64
}

func newServiceFakeStore() *serviceFakeStore {
	return &serviceFakeStore{
		nextID:           1,
		misc:             core.Category{ID: 1, Name: core.MiscellaneousCategory},
		materializedDays: make(map[int64]core.Day),
		recurringBudgets: make(map[int64]*core.RecurringBudget),
	}
}

func (f *serviceFakeStore) MiscellaneousCategory(ctx context.Context) (core.Category, error) {
	return f.misc, nil
}

func (f *serviceFakeStore) PersistExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	expense.ID = f.nextID
	f.nextID++
	f.persisted = append(f.persisted, expense)
	return expense, nil
}

func (f *serviceFakeStore) DeleteExpense(ctx context.Context, expense core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, expense.ID)
	return nil
}

func (f *serviceFakeStore) ActiveRecurringExpenses(ctx context.Context, asOf core.Day) ([]core.RecurringExpense, error) {
	return f.templates, nil
}

func (f *serviceFakeStore) MarkRecurringMaterialized(ctx context.Context, id int64, day core.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.materializedDays[id] = day
	return nil
}

func (f *serviceFakeStore) Accounts(ctx context.Context) ([]core.Account, error) {
	return f.accounts, nil
}

func (f *serviceFakeStore) RecurringBudgetForAccount(ctx context.Context, accountID int64) (*core.RecurringBudget, error) {
	return f.recurringBudgets[accountID], nil
}

func (f *serviceFakeStore) BudgetsForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := monthStart.StartOfMonth()
	end := start.EndOfMonth()
	var result []core.Budget
	for _, b := range f.budgets {
		if b.AccountID == accountID && !b.StartDay.After(end) && !b.EndDay.Before(start) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (f *serviceFakeStore) PersistBudget(ctx context.Context, budget core.Budget) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	budget.ID = f.nextID
	f.nextID++
	f.budgets = append(f.budgets, budget)
	return budget, nil
}

func (f *serviceFakeStore) OldestBudgetStartDay(ctx context.Context) (*core.Day, error) {
	return f.oldestBudget, nil
}

func (f *serviceFakeStore) RecomputeBudgetsSpent(ctx context.Context, start, end core.Day, accountID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recomputes = append(f.recomputes, accountID)
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseChangedEvent
}

func (p *fakePublisher) PublishExpenseChanged(ctx context.Context, event *amqp.ExpenseChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
