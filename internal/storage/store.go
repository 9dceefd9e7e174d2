package storage

import (
	"context"

	"simplebudget/internal/core"
)

// Store is the full persistence contract of the application. The SQLite
// implementation satisfies it, and so does the caching decorator in
// internal/cache, which makes the two freely substitutable.
type Store interface {
	// Lifecycle
	EnsureCreated(ctx context.Context) error
	ClearAllTables(ctx context.Context) error
	ForceFlushToDisk(ctx context.Context) error
	Close() error

	// Profile
	PersistProfile(ctx context.Context, profile core.Profile) (core.Profile, error)
	Profile(ctx context.Context) (*core.Profile, error)
	DeleteProfile(ctx context.Context) error

	// Categories
	PersistCategory(ctx context.Context, category core.Category) (core.Category, error)
	PersistCategories(ctx context.Context, categories []core.Category) error
	Categories(ctx context.Context) ([]core.Category, error)
	WatchCategories(ctx context.Context) <-chan []core.Category
	Category(ctx context.Context, id int64) (core.Category, error)
	CategoryByName(ctx context.Context, name string) (core.Category, error)
	MiscellaneousCategory(ctx context.Context) (core.Category, error)
	DeleteCategory(ctx context.Context, category core.Category) error
	DeleteCategoryByName(ctx context.Context, name string) error
	IsCategoriesEmpty(ctx context.Context) (bool, error)

	// Accounts
	Accounts(ctx context.Context) ([]core.Account, error)
	WatchAccounts(ctx context.Context) <-chan []core.Account
	ActiveAccount(ctx context.Context) (core.Account, error)
	WatchActiveAccount(ctx context.Context) <-chan core.Account
	Account(ctx context.Context, id int64) (core.Account, error)
	PersistAccount(ctx context.Context, account core.Account) (core.Account, error)
	PersistAccounts(ctx context.Context, accounts []core.Account) error
	DeleteAccount(ctx context.Context, account core.Account) error
	AccountExists(ctx context.Context, name string) (bool, error)
	ResetActiveAccount(ctx context.Context) error
	SetActiveAccount(ctx context.Context, accountID int64) error
	SetActiveAccountByName(ctx context.Context, name string) error
	IsAccountsEmpty(ctx context.Context) (bool, error)
	DeleteAllExpensesOfAccount(ctx context.Context, accountID int64) error

	// Expenses
	PersistExpense(ctx context.Context, expense core.Expense) (core.Expense, error)
	HasExpenseForDay(ctx context.Context, day core.Day, accountID int64) (bool, error)
	ExpensesForDay(ctx context.Context, day core.Day, accountID int64) ([]core.Expense, error)
	ExpensesForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Expense, error)
	ExpensesForMonthToDate(ctx context.Context, monthStart core.Day) ([]core.Expense, error)
	SearchExpenses(ctx context.Context, query string, accountID int64) ([]core.Expense, error)
	ExpensesBetween(ctx context.Context, start, end core.Day) ([]core.Expense, error)
	AllExpenses(ctx context.Context) ([]core.Expense, error)
	BalanceForDay(ctx context.Context, day core.Day, accountID int64) (core.Money, error)
	BalanceForCategory(ctx context.Context, monthStart, day core.Day, accountID int64, category string) (core.Money, error)
	DeleteExpense(ctx context.Context, expense core.Expense) error
	OldestExpense(ctx context.Context) (*core.Expense, error)

	// Recurring expenses
	PersistRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error)
	DeleteRecurringExpense(ctx context.Context, re core.RecurringExpense) error
	FindRecurringExpense(ctx context.Context, id int64) (*core.RecurringExpense, error)
	ActiveRecurringExpenses(ctx context.Context, asOf core.Day) ([]core.RecurringExpense, error)
	MarkRecurringMaterialized(ctx context.Context, id int64, day core.Day) error
	ExpensesForRecurring(ctx context.Context, recurringID int64) ([]core.Expense, error)
	DeleteExpensesForRecurring(ctx context.Context, recurringID int64) error
	ExpensesForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) ([]core.Expense, error)
	DeleteExpensesForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) error
	ExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) ([]core.Expense, error)
	DeleteExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) error
	HasExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) (bool, error)

	// Budgets
	PersistBudget(ctx context.Context, budget core.Budget) (core.Budget, error)
	PersistRecurringBudget(ctx context.Context, rb core.RecurringBudget) (core.RecurringBudget, error)
	UpdateBudgetAmounts(ctx context.Context, budgetID int64, spent, remaining core.Money) error
	RecomputeBudgetsSpent(ctx context.Context, start, end core.Day, accountID int64) error
	Budgets(ctx context.Context) ([]core.Budget, error)
	BudgetsForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Budget, error)
	BudgetsForCategory(ctx context.Context, categoryID, accountID int64) ([]core.Budget, error)
	BudgetWithCategories(ctx context.Context, budgetID int64) (core.Budget, error)
	RecurringBudgetForAccount(ctx context.Context, accountID int64) (*core.RecurringBudget, error)
	OldestBudgetStartDay(ctx context.Context) (*core.Day, error)
	ExpensesForBudget(ctx context.Context, budgetID int64, start, end core.Day) ([]core.Expense, error)
	DeleteBudget(ctx context.Context, budgetID int64) error
	DeleteRecurringBudget(ctx context.Context, recurringID int64) error
	DeleteBudgetsForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) error
}
