package core

import (
	"errors"
	"testing"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Title:     "Groceries",
		Amount:    Money{Cents: 2500},
		Day:       NewDay(2026, 9, 10),
		AccountID: 1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{"blank title", func(e *Expense) { e.Title = "   " }, ErrEmptyTitle},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"zero day", func(e *Expense) { e.Day = Day{} }, nil},
		{"missing account", func(e *Expense) { e.AccountID = 0 }, ErrMissingAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := good
			tt.mutate(&e)
			err := e.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpenseIncomeAndRecurring(t *testing.T) {
	income := Expense{Amount: Money{Cents: -300000}}
	if !income.IsIncome() {
		t.Fatal("negative amount not reported as income")
	}
	if (Expense{Amount: Money{Cents: 100}}).IsIncome() {
		t.Fatal("positive amount reported as income")
	}

	if !(Expense{RecurringID: 5}).IsRecurring() {
		t.Fatal("templated expense not reported as recurring")
	}
	if (Expense{}).IsRecurring() {
		t.Fatal("plain expense reported as recurring")
	}
}

func TestRecurringExpenseValidate(t *testing.T) {
	good := RecurringExpense{
		Title:     "Rent",
		Amount:    Money{Cents: 95000},
		StartDay:  NewDay(2026, 1, 1),
		Type:      Monthly,
		AccountID: 1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	bad := good
	bad.Type = RecurrenceType("fortnightly")
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown recurrence type accepted")
	}

	bad = good
	bad.StartDay = NewDay(2026, 2, 30)
	if err := bad.Validate(); err == nil {
		t.Fatal("impossible start day accepted")
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{
		Goal:         "Eat cheaper",
		AccountID:    1,
		BudgetAmount: Money{Cents: 30000},
		StartDay:     NewDay(2026, 9, 1),
		EndDay:       NewDay(2026, 9, 30),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	bad := good
	bad.EndDay = NewDay(2026, 8, 31)
	if err := bad.Validate(); err == nil {
		t.Fatal("end day before start day accepted")
	}

	bad = good
	bad.BudgetAmount = Money{Cents: -100}
	if err := bad.Validate(); err == nil {
		t.Fatal("negative budget amount accepted")
	}
}
