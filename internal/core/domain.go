package core

import (
	"errors"
	"strings"
)

const (
	Daily   RecurrenceType = "daily"
	Weekly  RecurrenceType = "weekly"
	Monthly RecurrenceType = "monthly"
	Yearly  RecurrenceType = "yearly"
)

// MiscellaneousCategory is the fallback category every install ships with.
const MiscellaneousCategory = "Miscellaneous"

// DefaultAccountName is the account created on first launch; it is the
// active account until the user switches.
const DefaultAccountName = "Default"

type (
	RecurrenceType string

	// Expense is a single day-dated ledger entry. A negative amount is
	// income, a positive one spending.
	Expense struct {
		ID          int64 // 0 until persisted
		Title       string
		Amount      Money
		Day         Day
		CategoryID  int64
		AccountID   int64
		RecurringID int64 // 0 unless generated from a recurring template
	}

	// RecurringExpense is a template from which day-dated expenses are
	// generated.
	RecurringExpense struct {
		ID               int64
		Title            string
		Amount           Money
		StartDay         Day
		Type             RecurrenceType
		Modified         bool
		CategoryID       int64
		AccountID        int64
		LastMaterialized Day // zero if never materialized
	}

	Category struct {
		ID   int64
		Name string
	}

	// Account is a user-defined partition of the ledger. Exactly one
	// account is active at a time.
	Account struct {
		ID       int64
		Name     string
		IsActive bool
	}

	Profile struct {
		ID       int64
		Name     string
		Email    string
		Currency string
	}

	// Budget is a spending goal over a date range, tracked against the
	// expenses of its linked categories.
	Budget struct {
		ID              int64
		Goal            string
		AccountID       int64
		BudgetAmount    Money
		SpentAmount     Money
		RemainingAmount Money
		StartDay        Day
		EndDay          Day
		RecurringID     int64 // 0 unless spawned by a recurring budget
		CategoryIDs     []int64
	}

	// RecurringBudget spawns a Budget per period.
	RecurringBudget struct {
		ID           int64
		Goal         string
		AccountID    int64
		BudgetAmount Money
		Type         RecurrenceType
		StartDay     Day
	}
)

var (
	ErrInvalidDay     = errors.New("invalid day")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyTitle     = errors.New("empty title")
	ErrMissingAccount = errors.New("missing account id")
	ErrNotFound       = errors.New("not found")
)

// IsIncome reports whether the expense is a revenue entry.
func (e Expense) IsIncome() bool {
	return e.Amount.Cents < 0
}

// IsRecurring reports whether the expense was generated from a template.
func (e Expense) IsRecurring() bool {
	return e.RecurringID != 0
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Day.Validate(); err != nil {
		return err
	}
	if e.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if e.AccountID <= 0 {
		return ErrMissingAccount
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if strings.TrimSpace(re.Title) == "" {
		return ErrEmptyTitle
	}
	if err := re.StartDay.Validate(); err != nil {
		return errors.New("invalid start day: " + err.Error())
	}
	if re.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if re.AccountID <= 0 {
		return ErrMissingAccount
	}
	switch re.Type {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return errors.New("invalid recurrence type")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Goal) == "" {
		return errors.New("empty goal")
	}
	if b.AccountID <= 0 {
		return ErrMissingAccount
	}
	if b.BudgetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := b.StartDay.Validate(); err != nil {
		return errors.New("invalid start day: " + err.Error())
	}
	if err := b.EndDay.Validate(); err != nil {
		return errors.New("invalid end day: " + err.Error())
	}
	if b.EndDay.Before(b.StartDay) {
		return errors.New("end day must not be before start day")
	}
	return nil
}
