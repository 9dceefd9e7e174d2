package cache

import (
	"slices"
	"sync"
	"sync/atomic"

	"simplebudget/internal/core"
)

// dayKey scopes every cached entry to the account it was filled for, so a
// month warmed for one account can never answer a read for another.
type dayKey struct {
	day     core.Day
	account int64
}

// memory holds the cached day views. Each map has its own lock; the
// generation counter is bumped on every wipe so that fill results computed
// against an older snapshot are discarded instead of resurrecting stale data.
type memory struct {
	gen atomic.Uint64

	expensesMu sync.Mutex
	expenses   map[dayKey][]core.Expense

	balancesMu sync.Mutex
	balances   map[dayKey]core.Money
}

func newMemory() *memory {
	return &memory{
		expenses: make(map[dayKey][]core.Expense),
		balances: make(map[dayKey]core.Money),
	}
}

func (m *memory) generation() uint64 {
	return m.gen.Load()
}

// wipe invalidates everything. The generation bump comes first so in-flight
// fills observe it before the maps are cleared.
func (m *memory) wipe() {
	m.gen.Add(1)

	m.balancesMu.Lock()
	m.balances = make(map[dayKey]core.Money)
	m.balancesMu.Unlock()

	m.expensesMu.Lock()
	m.expenses = make(map[dayKey][]core.Expense)
	m.expensesMu.Unlock()
}

// expensesForDay reports a hit only when the day was filled for the account
// the caller is asking about. A cached empty day is still a hit.
func (m *memory) expensesForDay(day core.Day, accountID int64) ([]core.Expense, bool) {
	m.expensesMu.Lock()
	defer m.expensesMu.Unlock()
	cached, ok := m.expenses[dayKey{day: day, account: accountID}]
	if !ok {
		return nil, false
	}
	return slices.Clone(cached), true
}

func (m *memory) putExpenses(gen uint64, day core.Day, accountID int64, expenses []core.Expense) bool {
	m.expensesMu.Lock()
	defer m.expensesMu.Unlock()
	if gen != m.gen.Load() {
		return false
	}
	m.expenses[dayKey{day: day, account: accountID}] = expenses
	return true
}

func (m *memory) hasExpensesDay(day core.Day, accountID int64) bool {
	m.expensesMu.Lock()
	defer m.expensesMu.Unlock()
	_, ok := m.expenses[dayKey{day: day, account: accountID}]
	return ok
}

func (m *memory) balanceForDay(day core.Day, accountID int64) (core.Money, bool) {
	m.balancesMu.Lock()
	defer m.balancesMu.Unlock()
	cached, ok := m.balances[dayKey{day: day, account: accountID}]
	return cached, ok
}

func (m *memory) putBalance(gen uint64, day core.Day, accountID int64, balance core.Money) bool {
	m.balancesMu.Lock()
	defer m.balancesMu.Unlock()
	if gen != m.gen.Load() {
		return false
	}
	m.balances[dayKey{day: day, account: accountID}] = balance
	return true
}

func (m *memory) hasBalanceDay(day core.Day, accountID int64) bool {
	m.balancesMu.Lock()
	defer m.balancesMu.Unlock()
	_, ok := m.balances[dayKey{day: day, account: accountID}]
	return ok
}

// counts used by tests and the stats endpoint.
func (m *memory) sizes() (expenseDays, balanceDays int) {
	m.expensesMu.Lock()
	expenseDays = len(m.expenses)
	m.expensesMu.Unlock()
	m.balancesMu.Lock()
	balanceDays = len(m.balances)
	m.balancesMu.Unlock()
	return expenseDays, balanceDays
}
