package cache

import (
	"context"

	"simplebudget/internal/core"
	"simplebudget/internal/storage"
)

// Store is a read-through cache wrapped around another storage.Store. Day
// expense lists and day balances are answered from memory when present; a
// miss is answered directly while a background task fills the whole month.
// Every mutation goes to the wrapped store first and then wipes the cache.
type Store struct {
	inner storage.Store
	mem   *memory
	exec  Executor
}

var _ storage.Store = (*Store)(nil)

func New(inner storage.Store, exec Executor) *Store {
	return &Store{
		inner: inner,
		mem:   newMemory(),
		exec:  exec,
	}
}

// Stats reports how many cached days each map currently holds.
func (s *Store) Stats() (expenseDays, balanceDays int) {
	return s.mem.sizes()
}

// Lifecycle

func (s *Store) EnsureCreated(ctx context.Context) error {
	return s.inner.EnsureCreated(ctx)
}

func (s *Store) ForceFlushToDisk(ctx context.Context) error {
	return s.inner.ForceFlushToDisk(ctx)
}

func (s *Store) ClearAllTables(ctx context.Context) error {
	if err := s.inner.ClearAllTables(ctx); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) Close() error {
	return s.inner.Close()
}

// Profile. Never cached and never wipes.

func (s *Store) PersistProfile(ctx context.Context, profile core.Profile) (core.Profile, error) {
	return s.inner.PersistProfile(ctx, profile)
}

func (s *Store) Profile(ctx context.Context) (*core.Profile, error) {
	return s.inner.Profile(ctx)
}

func (s *Store) DeleteProfile(ctx context.Context) error {
	return s.inner.DeleteProfile(ctx)
}

// Categories

func (s *Store) PersistCategory(ctx context.Context, category core.Category) (core.Category, error) {
	persisted, err := s.inner.PersistCategory(ctx, category)
	if err != nil {
		return core.Category{}, err
	}
	s.mem.wipe()
	return persisted, nil
}

func (s *Store) PersistCategories(ctx context.Context, categories []core.Category) error {
	if err := s.inner.PersistCategories(ctx, categories); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) Categories(ctx context.Context) ([]core.Category, error) {
	return s.inner.Categories(ctx)
}

func (s *Store) WatchCategories(ctx context.Context) <-chan []core.Category {
	return s.inner.WatchCategories(ctx)
}

func (s *Store) Category(ctx context.Context, id int64) (core.Category, error) {
	return s.inner.Category(ctx, id)
}

func (s *Store) CategoryByName(ctx context.Context, name string) (core.Category, error) {
	return s.inner.CategoryByName(ctx, name)
}

func (s *Store) MiscellaneousCategory(ctx context.Context) (core.Category, error) {
	return s.inner.MiscellaneousCategory(ctx)
}

func (s *Store) DeleteCategory(ctx context.Context, category core.Category) error {
	if err := s.inner.DeleteCategory(ctx, category); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) DeleteCategoryByName(ctx context.Context, name string) error {
	if err := s.inner.DeleteCategoryByName(ctx, name); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) IsCategoriesEmpty(ctx context.Context) (bool, error) {
	return s.inner.IsCategoriesEmpty(ctx)
}

// Accounts. Editing or switching accounts invalidates everything, matching
// the coarse wipe every other mutation does.

func (s *Store) Accounts(ctx context.Context) ([]core.Account, error) {
	return s.inner.Accounts(ctx)
}

func (s *Store) WatchAccounts(ctx context.Context) <-chan []core.Account {
	return s.inner.WatchAccounts(ctx)
}

func (s *Store) ActiveAccount(ctx context.Context) (core.Account, error) {
	return s.inner.ActiveAccount(ctx)
}

func (s *Store) WatchActiveAccount(ctx context.Context) <-chan core.Account {
	return s.inner.WatchActiveAccount(ctx)
}

func (s *Store) Account(ctx context.Context, id int64) (core.Account, error) {
	return s.inner.Account(ctx, id)
}

func (s *Store) PersistAccount(ctx context.Context, account core.Account) (core.Account, error) {
	persisted, err := s.inner.PersistAccount(ctx, account)
	if err != nil {
		return core.Account{}, err
	}
	s.mem.wipe()
	return persisted, nil
}

func (s *Store) PersistAccounts(ctx context.Context, accounts []core.Account) error {
	if err := s.inner.PersistAccounts(ctx, accounts); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, account core.Account) error {
	if err := s.inner.DeleteAccount(ctx, account); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) AccountExists(ctx context.Context, name string) (bool, error) {
	return s.inner.AccountExists(ctx, name)
}

func (s *Store) ResetActiveAccount(ctx context.Context) error {
	if err := s.inner.ResetActiveAccount(ctx); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) SetActiveAccount(ctx context.Context, accountID int64) error {
	if err := s.inner.SetActiveAccount(ctx, accountID); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) SetActiveAccountByName(ctx context.Context, name string) error {
	if err := s.inner.SetActiveAccountByName(ctx, name); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) IsAccountsEmpty(ctx context.Context) (bool, error) {
	return s.inner.IsAccountsEmpty(ctx)
}

func (s *Store) DeleteAllExpensesOfAccount(ctx context.Context, accountID int64) error {
	if err := s.inner.DeleteAllExpensesOfAccount(ctx, accountID); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

// Expenses

func (s *Store) PersistExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	persisted, err := s.inner.PersistExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, err
	}
	s.mem.wipe()
	return persisted, nil
}

func (s *Store) HasExpenseForDay(ctx context.Context, day core.Day, accountID int64) (bool, error) {
	if cached, ok := s.mem.expensesForDay(day, accountID); ok {
		return len(cached) > 0, nil
	}
	s.scheduleExpensesFill(day, accountID)
	return s.inner.HasExpenseForDay(ctx, day, accountID)
}

func (s *Store) ExpensesForDay(ctx context.Context, day core.Day, accountID int64) ([]core.Expense, error) {
	if cached, ok := s.mem.expensesForDay(day, accountID); ok {
		return cached, nil
	}
	s.scheduleExpensesFill(day, accountID)
	return s.inner.ExpensesForDay(ctx, day, accountID)
}

func (s *Store) ExpensesForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Expense, error) {
	return s.inner.ExpensesForMonth(ctx, monthStart, accountID)
}

func (s *Store) ExpensesForMonthToDate(ctx context.Context, monthStart core.Day) ([]core.Expense, error) {
	return s.inner.ExpensesForMonthToDate(ctx, monthStart)
}

func (s *Store) SearchExpenses(ctx context.Context, query string, accountID int64) ([]core.Expense, error) {
	return s.inner.SearchExpenses(ctx, query, accountID)
}

func (s *Store) ExpensesBetween(ctx context.Context, start, end core.Day) ([]core.Expense, error) {
	return s.inner.ExpensesBetween(ctx, start, end)
}

func (s *Store) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.inner.AllExpenses(ctx)
}

func (s *Store) BalanceForDay(ctx context.Context, day core.Day, accountID int64) (core.Money, error) {
	if cached, ok := s.mem.balanceForDay(day, accountID); ok {
		return cached, nil
	}
	s.scheduleBalancesFill(day, accountID)
	return s.inner.BalanceForDay(ctx, day, accountID)
}

// BalanceForCategory always answers from the wrapped store because the
// balance map holds day totals, not per-category amounts. A miss on the
// day key still warms the month for the day-balance reads that follow.
func (s *Store) BalanceForCategory(ctx context.Context, monthStart, day core.Day, accountID int64, category string) (core.Money, error) {
	if _, ok := s.mem.balanceForDay(day, accountID); !ok {
		s.scheduleBalancesFill(day, accountID)
	}
	return s.inner.BalanceForCategory(ctx, monthStart, day, accountID, category)
}

func (s *Store) DeleteExpense(ctx context.Context, expense core.Expense) error {
	if err := s.inner.DeleteExpense(ctx, expense); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) OldestExpense(ctx context.Context) (*core.Expense, error) {
	return s.inner.OldestExpense(ctx)
}

// Recurring expenses

func (s *Store) PersistRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	persisted, err := s.inner.PersistRecurringExpense(ctx, re)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	s.mem.wipe()
	return persisted, nil
}

func (s *Store) DeleteRecurringExpense(ctx context.Context, re core.RecurringExpense) error {
	if err := s.inner.DeleteRecurringExpense(ctx, re); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) FindRecurringExpense(ctx context.Context, id int64) (*core.RecurringExpense, error) {
	return s.inner.FindRecurringExpense(ctx, id)
}

func (s *Store) ActiveRecurringExpenses(ctx context.Context, asOf core.Day) ([]core.RecurringExpense, error) {
	return s.inner.ActiveRecurringExpenses(ctx, asOf)
}

// MarkRecurringMaterialized only touches bookkeeping on the recurring row
// itself, so the cached day views stay valid.
func (s *Store) MarkRecurringMaterialized(ctx context.Context, id int64, day core.Day) error {
	return s.inner.MarkRecurringMaterialized(ctx, id, day)
}

func (s *Store) ExpensesForRecurring(ctx context.Context, recurringID int64) ([]core.Expense, error) {
	return s.inner.ExpensesForRecurring(ctx, recurringID)
}

func (s *Store) DeleteExpensesForRecurring(ctx context.Context, recurringID int64) error {
	if err := s.inner.DeleteExpensesForRecurring(ctx, recurringID); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) ExpensesForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) ([]core.Expense, error) {
	return s.inner.ExpensesForRecurringFromDay(ctx, recurringID, from)
}

func (s *Store) DeleteExpensesForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) error {
	if err := s.inner.DeleteExpensesForRecurringFromDay(ctx, recurringID, from); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) ExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) ([]core.Expense, error) {
	return s.inner.ExpensesForRecurringBeforeDay(ctx, recurringID, before)
}

func (s *Store) DeleteExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) error {
	if err := s.inner.DeleteExpensesForRecurringBeforeDay(ctx, recurringID, before); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) HasExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) (bool, error) {
	return s.inner.HasExpensesForRecurringBeforeDay(ctx, recurringID, before)
}

// Budgets. Budget rows are not cached, but budget writes can accompany
// expense rewrites, so they invalidate like every other mutation.

func (s *Store) PersistBudget(ctx context.Context, budget core.Budget) (core.Budget, error) {
	persisted, err := s.inner.PersistBudget(ctx, budget)
	if err != nil {
		return core.Budget{}, err
	}
	s.mem.wipe()
	return persisted, nil
}

func (s *Store) PersistRecurringBudget(ctx context.Context, rb core.RecurringBudget) (core.RecurringBudget, error) {
	persisted, err := s.inner.PersistRecurringBudget(ctx, rb)
	if err != nil {
		return core.RecurringBudget{}, err
	}
	s.mem.wipe()
	return persisted, nil
}

func (s *Store) UpdateBudgetAmounts(ctx context.Context, budgetID int64, spent, remaining core.Money) error {
	if err := s.inner.UpdateBudgetAmounts(ctx, budgetID, spent, remaining); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) RecomputeBudgetsSpent(ctx context.Context, start, end core.Day, accountID int64) error {
	if err := s.inner.RecomputeBudgetsSpent(ctx, start, end, accountID); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) Budgets(ctx context.Context) ([]core.Budget, error) {
	return s.inner.Budgets(ctx)
}

func (s *Store) BudgetsForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Budget, error) {
	return s.inner.BudgetsForMonth(ctx, monthStart, accountID)
}

func (s *Store) BudgetsForCategory(ctx context.Context, categoryID, accountID int64) ([]core.Budget, error) {
	return s.inner.BudgetsForCategory(ctx, categoryID, accountID)
}

func (s *Store) BudgetWithCategories(ctx context.Context, budgetID int64) (core.Budget, error) {
	return s.inner.BudgetWithCategories(ctx, budgetID)
}

func (s *Store) RecurringBudgetForAccount(ctx context.Context, accountID int64) (*core.RecurringBudget, error) {
	return s.inner.RecurringBudgetForAccount(ctx, accountID)
}

func (s *Store) OldestBudgetStartDay(ctx context.Context) (*core.Day, error) {
	return s.inner.OldestBudgetStartDay(ctx)
}

func (s *Store) ExpensesForBudget(ctx context.Context, budgetID int64, start, end core.Day) ([]core.Expense, error) {
	return s.inner.ExpensesForBudget(ctx, budgetID, start, end)
}

func (s *Store) DeleteBudget(ctx context.Context, budgetID int64) error {
	if err := s.inner.DeleteBudget(ctx, budgetID); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) DeleteRecurringBudget(ctx context.Context, recurringID int64) error {
	if err := s.inner.DeleteRecurringBudget(ctx, recurringID); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}

func (s *Store) DeleteBudgetsForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) error {
	if err := s.inner.DeleteBudgetsForRecurringFromDay(ctx, recurringID, from); err != nil {
		return err
	}
	s.mem.wipe()
	return nil
}
