package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"simplebudget/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the durable implementation of Store.
type SQLiteStore struct {
	db   *sql.DB
	path string

	categoryTopic *topic
	accountTopic  *topic
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	return &SQLiteStore{
		db:            db,
		path:          dbPath,
		categoryTopic: newTopic(),
		accountTopic:  newTopic(),
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Lifecycle

func (s *SQLiteStore) EnsureCreated(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ensure database created: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ForceFlushToDisk(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(FULL)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearAllTables(ctx context.Context) error {
	tables := []string{
		"budget_category", "budget", "recurring_budget",
		"expense", "recurring_expense", "account", "category", "profile",
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}

	slog.InfoContext(ctx, "All tables cleared")
	s.categoryTopic.broadcast()
	s.accountTopic.broadcast()
	return nil
}

// Profile

func (s *SQLiteStore) PersistProfile(ctx context.Context, profile core.Profile) (core.Profile, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (id, name, email, currency) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, currency = excluded.currency`,
		profile.Name, profile.Email, profile.Currency)
	if err != nil {
		return core.Profile{}, fmt.Errorf("persist profile: %w", err)
	}
	profile.ID = 1
	return profile, nil
}

func (s *SQLiteStore) Profile(ctx context.Context) (*core.Profile, error) {
	var p core.Profile
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, currency FROM profile WHERE id = 1").
		Scan(&p.ID, &p.Name, &p.Email, &p.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) DeleteProfile(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM profile WHERE id = 1"); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// Categories

func (s *SQLiteStore) PersistCategory(ctx context.Context, category core.Category) (core.Category, error) {
	if category.ID != 0 {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE category SET name = ? WHERE id = ?", category.Name, category.ID); err != nil {
			return core.Category{}, fmt.Errorf("update category: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO category (name) VALUES (?)", category.Name)
		if err != nil {
			return core.Category{}, fmt.Errorf("insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Category{}, fmt.Errorf("category insert id: %w", err)
		}
		category.ID = id
	}
	s.categoryTopic.broadcast()
	return category, nil
}

func (s *SQLiteStore) PersistCategories(ctx context.Context, categories []core.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist categories: %w", err)
	}
	defer tx.Rollback()

	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO category (name) VALUES (?) ON CONFLICT(name) DO NOTHING", c.Name); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit persist categories: %w", err)
	}
	s.categoryTopic.broadcast()
	return nil
}

func (s *SQLiteStore) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM category ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) WatchCategories(ctx context.Context) <-chan []core.Category {
	out := make(chan []core.Category, 1)
	go watch(ctx, s.categoryTopic, s.Categories, out)
	return out
}

func (s *SQLiteStore) Category(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM category WHERE id = ?", id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) CategoryByName(ctx context.Context, name string) (core.Category, error) {
	var c core.Category
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM category WHERE name = ?", name).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) MiscellaneousCategory(ctx context.Context) (core.Category, error) {
	return s.CategoryByName(ctx, core.MiscellaneousCategory)
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, category core.Category) error {
	if category.ID == 0 {
		return errors.New("delete category: missing id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM budget_category WHERE category_id = ?", category.ID); err != nil {
		return fmt.Errorf("delete budget cross refs: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM category WHERE id = ?", category.ID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	s.categoryTopic.broadcast()
	return nil
}

func (s *SQLiteStore) DeleteCategoryByName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	category, err := s.CategoryByName(ctx, name)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.DeleteCategory(ctx, category)
}

func (s *SQLiteStore) IsCategoriesEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM category").Scan(&count); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	return count == 0, nil
}

// Accounts

func (s *SQLiteStore) Accounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, is_active FROM account ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.IsActive); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLiteStore) WatchAccounts(ctx context.Context) <-chan []core.Account {
	out := make(chan []core.Account, 1)
	go watch(ctx, s.accountTopic, s.Accounts, out)
	return out
}

func (s *SQLiteStore) ActiveAccount(ctx context.Context) (core.Account, error) {
	var a core.Account
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, is_active FROM account WHERE is_active = 1 LIMIT 1").
		Scan(&a.ID, &a.Name, &a.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("active account: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get active account: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) WatchActiveAccount(ctx context.Context) <-chan core.Account {
	out := make(chan core.Account, 1)
	go watch(ctx, s.accountTopic, s.ActiveAccount, out)
	return out
}

func (s *SQLiteStore) Account(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, is_active FROM account WHERE id = ?", id).
		Scan(&a.ID, &a.Name, &a.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) PersistAccount(ctx context.Context, account core.Account) (core.Account, error) {
	if account.ID != 0 {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE account SET name = ?, is_active = ? WHERE id = ?",
			account.Name, account.IsActive, account.ID); err != nil {
			return core.Account{}, fmt.Errorf("update account: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO account (name, is_active) VALUES (?, ?)",
			account.Name, account.IsActive)
		if err != nil {
			return core.Account{}, fmt.Errorf("insert account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Account{}, fmt.Errorf("account insert id: %w", err)
		}
		account.ID = id
	}
	s.accountTopic.broadcast()
	return account, nil
}

func (s *SQLiteStore) PersistAccounts(ctx context.Context, accounts []core.Account) error {
	for _, a := range accounts {
		if _, err := s.PersistAccount(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) DeleteAccount(ctx context.Context, account core.Account) error {
	if account.ID == 0 {
		return errors.New("delete account: missing id")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", account.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	s.accountTopic.broadcast()
	return nil
}

func (s *SQLiteStore) AccountExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM account WHERE name = ?", name).Scan(&count); err != nil {
		return false, fmt.Errorf("count accounts by name: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) ResetActiveAccount(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE account SET is_active = CASE WHEN name = ? THEN 1 ELSE 0 END",
		core.DefaultAccountName); err != nil {
		return fmt.Errorf("reset active account: %w", err)
	}
	s.accountTopic.broadcast()
	return nil
}

func (s *SQLiteStore) SetActiveAccount(ctx context.Context, accountID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE account SET is_active = CASE WHEN id = ? THEN 1 ELSE 0 END",
		accountID); err != nil {
		return fmt.Errorf("set active account: %w", err)
	}
	s.accountTopic.broadcast()
	return nil
}

func (s *SQLiteStore) SetActiveAccountByName(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE account SET is_active = CASE WHEN name = ? THEN 1 ELSE 0 END",
		name); err != nil {
		return fmt.Errorf("set active account by name: %w", err)
	}
	s.accountTopic.broadcast()
	return nil
}

func (s *SQLiteStore) IsAccountsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&count); err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return count == 0, nil
}

func (s *SQLiteStore) DeleteAllExpensesOfAccount(ctx context.Context, accountID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete account expenses: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense WHERE account_id = ?", accountID); err != nil {
		return fmt.Errorf("delete expenses of account: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM recurring_expense WHERE account_id = ?", accountID); err != nil {
		return fmt.Errorf("delete recurring expenses of account: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete account expenses: %w", err)
	}

	slog.InfoContext(ctx, "Deleted all expenses of account", "account_id", accountID)
	return nil
}

// Expenses

const expenseColumns = "id, title, amount_cents, day, category_id, account_id, recurring_id"

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	var day int64
	var recurring sql.NullInt64
	if err := row.Scan(&e.ID, &e.Title, &e.Amount.Cents, &day, &e.CategoryID, &e.AccountID, &recurring); err != nil {
		return core.Expense{}, err
	}
	e.Day = core.DayFromEpoch(day)
	if recurring.Valid {
		e.RecurringID = recurring.Int64
	}
	return e, nil
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (s *SQLiteStore) PersistExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	if expense.ID != 0 {
		_, err := s.db.ExecContext(ctx,
			`UPDATE expense SET title = ?, amount_cents = ?, day = ?, category_id = ?, account_id = ?, recurring_id = ?
			 WHERE id = ?`,
			expense.Title, expense.Amount.Cents, expense.Day.EpochDay(),
			expense.CategoryID, expense.AccountID, nullableID(expense.RecurringID), expense.ID)
		if err != nil {
			return core.Expense{}, fmt.Errorf("update expense: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO expense (title, amount_cents, day, category_id, account_id, recurring_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			expense.Title, expense.Amount.Cents, expense.Day.EpochDay(),
			expense.CategoryID, expense.AccountID, nullableID(expense.RecurringID))
		if err != nil {
			return core.Expense{}, fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
		}
		expense.ID = id
	}

	slog.InfoContext(ctx, "Expense persisted",
		"id", expense.ID,
		"title", expense.Title,
		"amount_cents", expense.Amount.Cents,
		"day", expense.Day.String(),
		"account_id", expense.AccountID)

	return expense, nil
}

func (s *SQLiteStore) HasExpenseForDay(ctx context.Context, day core.Day, accountID int64) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expense WHERE day = ? AND account_id = ? LIMIT 1",
		day.EpochDay(), accountID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has expense for day: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) ExpensesForDay(ctx context.Context, day core.Day, accountID int64) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE day = ? AND account_id = ? ORDER BY id",
		day.EpochDay(), accountID)
	if err != nil {
		return nil, fmt.Errorf("get expenses for day: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) ExpensesForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Expense, error) {
	start := monthStart.StartOfMonth()
	end := start.EndOfMonth()
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE day >= ? AND day <= ? AND account_id = ? ORDER BY day, id",
		start.EpochDay(), end.EpochDay(), accountID)
	if err != nil {
		return nil, fmt.Errorf("get expenses for month: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) ExpensesForMonthToDate(ctx context.Context, monthStart core.Day) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE day >= ? AND day <= ? ORDER BY day, id",
		monthStart.StartOfMonth().EpochDay(), core.Today().EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get expenses for month to date: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) SearchExpenses(ctx context.Context, query string, accountID int64) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE title LIKE ? AND account_id = ? ORDER BY day DESC, id",
		"%"+query+"%", accountID)
	if err != nil {
		return nil, fmt.Errorf("search expenses: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) ExpensesBetween(ctx context.Context, start, end core.Day) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE day >= ? AND day <= ? ORDER BY day, id",
		start.EpochDay(), end.EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get expenses between: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense ORDER BY day, id")
	if err != nil {
		return nil, fmt.Errorf("get all expenses: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) BalanceForDay(ctx context.Context, day core.Day, accountID int64) (core.Money, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM expense WHERE day <= ? AND account_id = ?",
		day.EpochDay(), accountID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("get balance for day: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (s *SQLiteStore) BalanceForCategory(ctx context.Context, monthStart, day core.Day, accountID int64, category string) (core.Money, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expense
		 WHERE day >= ? AND day <= ? AND account_id = ?
		   AND category_id IN (SELECT id FROM category WHERE name = ?)`,
		monthStart.EpochDay(), day.EpochDay(), accountID, category).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("get balance for category: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (s *SQLiteStore) DeleteExpense(ctx context.Context, expense core.Expense) error {
	if expense.ID == 0 {
		return errors.New("delete expense: missing id")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM expense WHERE id = ?", expense.ID); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", expense.ID)
	return nil
}

func (s *SQLiteStore) OldestExpense(ctx context.Context) (*core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expense ORDER BY day, id LIMIT 1")
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get oldest expense: %w", err)
	}
	return &e, nil
}

// Recurring expenses

const recurringColumns = "id, title, amount_cents, start_day, type, modified, category_id, account_id, last_materialized"

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringExpense, error) {
	var re core.RecurringExpense
	var startDay int64
	var lastMaterialized sql.NullInt64
	if err := row.Scan(&re.ID, &re.Title, &re.Amount.Cents, &startDay, &re.Type,
		&re.Modified, &re.CategoryID, &re.AccountID, &lastMaterialized); err != nil {
		return core.RecurringExpense{}, err
	}
	re.StartDay = core.DayFromEpoch(startDay)
	if lastMaterialized.Valid {
		re.LastMaterialized = core.DayFromEpoch(lastMaterialized.Int64)
	}
	return re, nil
}

func (s *SQLiteStore) PersistRecurringExpense(ctx context.Context, re core.RecurringExpense) (core.RecurringExpense, error) {
	var lastMaterialized any
	if !re.LastMaterialized.IsZero() {
		lastMaterialized = re.LastMaterialized.EpochDay()
	}
	if re.ID != 0 {
		_, err := s.db.ExecContext(ctx,
			`UPDATE recurring_expense
			 SET title = ?, amount_cents = ?, start_day = ?, type = ?, modified = ?, category_id = ?, account_id = ?, last_materialized = ?
			 WHERE id = ?`,
			re.Title, re.Amount.Cents, re.StartDay.EpochDay(), string(re.Type), re.Modified,
			re.CategoryID, re.AccountID, lastMaterialized, re.ID)
		if err != nil {
			return core.RecurringExpense{}, fmt.Errorf("update recurring expense: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO recurring_expense (title, amount_cents, start_day, type, modified, category_id, account_id, last_materialized)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			re.Title, re.Amount.Cents, re.StartDay.EpochDay(), string(re.Type), re.Modified,
			re.CategoryID, re.AccountID, lastMaterialized)
		if err != nil {
			return core.RecurringExpense{}, fmt.Errorf("insert recurring expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.RecurringExpense{}, fmt.Errorf("recurring expense insert id: %w", err)
		}
		re.ID = id
	}
	return re, nil
}

func (s *SQLiteStore) DeleteRecurringExpense(ctx context.Context, re core.RecurringExpense) error {
	if re.ID == 0 {
		return errors.New("delete recurring expense: missing id")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM recurring_expense WHERE id = ?", re.ID); err != nil {
		return fmt.Errorf("delete recurring expense: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindRecurringExpense(ctx context.Context, id int64) (*core.RecurringExpense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_expense WHERE id = ?", id)
	re, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find recurring expense: %w", err)
	}
	return &re, nil
}

func (s *SQLiteStore) ActiveRecurringExpenses(ctx context.Context, asOf core.Day) ([]core.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_expense WHERE start_day <= ? ORDER BY id",
		asOf.EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get active recurring expenses: %w", err)
	}
	defer rows.Close()

	var result []core.RecurringExpense
	for rows.Next() {
		re, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		result = append(result, re)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) MarkRecurringMaterialized(ctx context.Context, id int64, day core.Day) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE recurring_expense SET last_materialized = ? WHERE id = ?",
		day.EpochDay(), id); err != nil {
		return fmt.Errorf("mark recurring materialized: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ExpensesForRecurring(ctx context.Context, recurringID int64) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE recurring_id = ? ORDER BY day, id", recurringID)
	if err != nil {
		return nil, fmt.Errorf("get expenses for recurring: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) DeleteExpensesForRecurring(ctx context.Context, recurringID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM expense WHERE recurring_id = ?", recurringID); err != nil {
		return fmt.Errorf("delete expenses for recurring: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ExpensesForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE recurring_id = ? AND day >= ? ORDER BY day, id",
		recurringID, from.EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get expenses for recurring from day: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) DeleteExpensesForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM expense WHERE recurring_id = ? AND day >= ?",
		recurringID, from.EpochDay()); err != nil {
		return fmt.Errorf("delete expenses for recurring from day: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expense WHERE recurring_id = ? AND day < ? ORDER BY day, id",
		recurringID, before.EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get expenses for recurring before day: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) DeleteExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM expense WHERE recurring_id = ? AND day < ?",
		recurringID, before.EpochDay()); err != nil {
		return fmt.Errorf("delete expenses for recurring before day: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HasExpensesForRecurringBeforeDay(ctx context.Context, recurringID int64, before core.Day) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expense WHERE recurring_id = ? AND day < ? LIMIT 1",
		recurringID, before.EpochDay()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("has expenses for recurring before day: %w", err)
	}
	return count > 0, nil
}

// Budgets

const budgetColumns = "id, goal, account_id, budget_cents, spent_cents, remaining_cents, start_day, end_day, recurring_id"

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	var startDay, endDay int64
	var recurring sql.NullInt64
	if err := row.Scan(&b.ID, &b.Goal, &b.AccountID, &b.BudgetAmount.Cents,
		&b.SpentAmount.Cents, &b.RemainingAmount.Cents, &startDay, &endDay, &recurring); err != nil {
		return core.Budget{}, err
	}
	b.StartDay = core.DayFromEpoch(startDay)
	b.EndDay = core.DayFromEpoch(endDay)
	if recurring.Valid {
		b.RecurringID = recurring.Int64
	}
	return b, nil
}

func (s *SQLiteStore) loadBudgetCategories(ctx context.Context, b *core.Budget) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT category_id FROM budget_category WHERE budget_id = ? ORDER BY category_id", b.ID)
	if err != nil {
		return fmt.Errorf("get budget categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan budget category: %w", err)
		}
		b.CategoryIDs = append(b.CategoryIDs, id)
	}
	return rows.Err()
}

func (s *SQLiteStore) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range budgets {
		if err := s.loadBudgetCategories(ctx, &budgets[i]); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

func (s *SQLiteStore) PersistBudget(ctx context.Context, budget core.Budget) (core.Budget, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin persist budget: %w", err)
	}
	defer tx.Rollback()

	if budget.ID != 0 {
		_, err := tx.ExecContext(ctx,
			`UPDATE budget SET goal = ?, account_id = ?, budget_cents = ?, spent_cents = ?, remaining_cents = ?, start_day = ?, end_day = ?, recurring_id = ?
			 WHERE id = ?`,
			budget.Goal, budget.AccountID, budget.BudgetAmount.Cents, budget.SpentAmount.Cents,
			budget.RemainingAmount.Cents, budget.StartDay.EpochDay(), budget.EndDay.EpochDay(),
			nullableID(budget.RecurringID), budget.ID)
		if err != nil {
			return core.Budget{}, fmt.Errorf("update budget: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM budget_category WHERE budget_id = ?", budget.ID); err != nil {
			return core.Budget{}, fmt.Errorf("clear budget categories: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO budget (goal, account_id, budget_cents, spent_cents, remaining_cents, start_day, end_day, recurring_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			budget.Goal, budget.AccountID, budget.BudgetAmount.Cents, budget.SpentAmount.Cents,
			budget.RemainingAmount.Cents, budget.StartDay.EpochDay(), budget.EndDay.EpochDay(),
			nullableID(budget.RecurringID))
		if err != nil {
			return core.Budget{}, fmt.Errorf("insert budget: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
		}
		budget.ID = id
	}

	for _, categoryID := range budget.CategoryIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO budget_category (budget_id, category_id) VALUES (?, ?)",
			budget.ID, categoryID); err != nil {
			return core.Budget{}, fmt.Errorf("insert budget category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit persist budget: %w", err)
	}
	return budget, nil
}

func (s *SQLiteStore) PersistRecurringBudget(ctx context.Context, rb core.RecurringBudget) (core.RecurringBudget, error) {
	if rb.ID != 0 {
		_, err := s.db.ExecContext(ctx,
			"UPDATE recurring_budget SET goal = ?, account_id = ?, budget_cents = ?, type = ?, start_day = ? WHERE id = ?",
			rb.Goal, rb.AccountID, rb.BudgetAmount.Cents, string(rb.Type), rb.StartDay.EpochDay(), rb.ID)
		if err != nil {
			return core.RecurringBudget{}, fmt.Errorf("update recurring budget: %w", err)
		}
	} else {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO recurring_budget (goal, account_id, budget_cents, type, start_day) VALUES (?, ?, ?, ?, ?)",
			rb.Goal, rb.AccountID, rb.BudgetAmount.Cents, string(rb.Type), rb.StartDay.EpochDay())
		if err != nil {
			return core.RecurringBudget{}, fmt.Errorf("insert recurring budget: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.RecurringBudget{}, fmt.Errorf("recurring budget insert id: %w", err)
		}
		rb.ID = id
	}
	return rb, nil
}

func (s *SQLiteStore) UpdateBudgetAmounts(ctx context.Context, budgetID int64, spent, remaining core.Money) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE budget SET spent_cents = ?, remaining_cents = ? WHERE id = ?",
		spent.Cents, remaining.Cents, budgetID); err != nil {
		return fmt.Errorf("update budget amounts: %w", err)
	}
	return nil
}

// RecomputeBudgetsSpent recalculates spent and remaining amounts for every
// budget of the account that overlaps [start, end], from the expenses of the
// budget's linked categories clamped to the budget's own range.
func (s *SQLiteStore) RecomputeBudgetsSpent(ctx context.Context, start, end core.Day, accountID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recompute budgets: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE budget SET spent_cents = COALESCE((
			SELECT COALESCE(SUM(e.amount_cents), 0) FROM expense e
			WHERE e.account_id = ?1
			  AND e.category_id IN (SELECT category_id FROM budget_category WHERE budget_id = budget.id)
			  AND e.day >= MAX(budget.start_day, ?2)
			  AND e.day <= MIN(budget.end_day, ?3)
		 ), 0)
		 WHERE account_id = ?1 AND start_day <= ?3 AND end_day >= ?2`,
		accountID, start.EpochDay(), end.EpochDay())
	if err != nil {
		return fmt.Errorf("recompute spent amounts: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE budget SET remaining_cents = budget_cents - spent_cents
		 WHERE account_id = ?1 AND start_day <= ?3 AND end_day >= ?2`,
		accountID, start.EpochDay(), end.EpochDay())
	if err != nil {
		return fmt.Errorf("recompute remaining amounts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit recompute budgets: %w", err)
	}

	slog.InfoContext(ctx, "Budgets recomputed",
		"account_id", accountID,
		"from", start.String(),
		"to", end.String())
	return nil
}

func (s *SQLiteStore) Budgets(ctx context.Context) ([]core.Budget, error) {
	budgets, err := s.queryBudgets(ctx,
		"SELECT "+budgetColumns+" FROM budget ORDER BY start_day, id")
	if err != nil {
		return nil, fmt.Errorf("get budgets: %w", err)
	}
	return budgets, nil
}

func (s *SQLiteStore) BudgetsForMonth(ctx context.Context, monthStart core.Day, accountID int64) ([]core.Budget, error) {
	start := monthStart.StartOfMonth()
	end := start.EndOfMonth()
	// A budget spanning multiple months shows up in each of them.
	budgets, err := s.queryBudgets(ctx,
		"SELECT "+budgetColumns+" FROM budget WHERE account_id = ? AND start_day <= ? AND end_day >= ? ORDER BY start_day, id",
		accountID, end.EpochDay(), start.EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get budgets for month: %w", err)
	}
	return budgets, nil
}

func (s *SQLiteStore) BudgetsForCategory(ctx context.Context, categoryID, accountID int64) ([]core.Budget, error) {
	budgets, err := s.queryBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budget
		 WHERE id IN (SELECT budget_id FROM budget_category WHERE category_id = ?) AND account_id = ?
		 ORDER BY start_day, id`,
		categoryID, accountID)
	if err != nil {
		return nil, fmt.Errorf("get budgets for category: %w", err)
	}
	return budgets, nil
}

func (s *SQLiteStore) BudgetWithCategories(ctx context.Context, budgetID int64) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budget WHERE id = ?", budgetID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %d: %w", budgetID, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	if err := s.loadBudgetCategories(ctx, &b); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (s *SQLiteStore) RecurringBudgetForAccount(ctx context.Context, accountID int64) (*core.RecurringBudget, error) {
	var rb core.RecurringBudget
	var startDay int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, goal, account_id, budget_cents, type, start_day FROM recurring_budget WHERE account_id = ? LIMIT 1",
		accountID).Scan(&rb.ID, &rb.Goal, &rb.AccountID, &rb.BudgetAmount.Cents, &rb.Type, &startDay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring budget for account: %w", err)
	}
	rb.StartDay = core.DayFromEpoch(startDay)
	return &rb, nil
}

func (s *SQLiteStore) OldestBudgetStartDay(ctx context.Context) (*core.Day, error) {
	var epoch sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MIN(start_day) FROM budget").Scan(&epoch)
	if err != nil {
		return nil, fmt.Errorf("get oldest budget start day: %w", err)
	}
	if !epoch.Valid {
		return nil, nil
	}
	day := core.DayFromEpoch(epoch.Int64)
	return &day, nil
}

func (s *SQLiteStore) ExpensesForBudget(ctx context.Context, budgetID int64, start, end core.Day) ([]core.Expense, error) {
	expenses, err := s.queryExpenses(ctx,
		`SELECT e.id, e.title, e.amount_cents, e.day, e.category_id, e.account_id, e.recurring_id
		 FROM expense e, budget b
		 WHERE b.id = ?1
		   AND e.category_id IN (SELECT category_id FROM budget_category WHERE budget_id = ?1)
		   AND e.account_id = b.account_id
		   AND e.day >= MAX(b.start_day, ?2)
		   AND e.day <= MIN(b.end_day, ?3)
		 ORDER BY e.day, e.id`,
		budgetID, start.EpochDay(), end.EpochDay())
	if err != nil {
		return nil, fmt.Errorf("get expenses for budget: %w", err)
	}
	return expenses, nil
}

func (s *SQLiteStore) DeleteBudget(ctx context.Context, budgetID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete budget: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM budget_category WHERE budget_id = ?", budgetID); err != nil {
		return fmt.Errorf("delete budget categories: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM budget WHERE id = ?", budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRecurringBudget(ctx context.Context, recurringID int64) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM recurring_budget WHERE id = ?", recurringID); err != nil {
		return fmt.Errorf("delete recurring budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteBudgetsForRecurringFromDay(ctx context.Context, recurringID int64, from core.Day) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM budget WHERE recurring_id = ? AND start_day >= ?",
		recurringID, from.EpochDay()); err != nil {
		return fmt.Errorf("delete budgets for recurring from day: %w", err)
	}
	return nil
}
