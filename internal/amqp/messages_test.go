package amqp

import (
	"testing"

	"simplebudget/internal/core"
)

func TestExpenseChangedEventRoundTrip(t *testing.T) {
	expense := core.Expense{
		ID:        42,
		Title:     "Groceries",
		Amount:    core.Money{Cents: 2599},
		Day:       core.NewDay(2026, 9, 1),
		AccountID: 3,
	}

	event := NewExpenseChangedEvent(ActionPersisted, expense)
	if event.EventID == "" {
		t.Fatal("event id not assigned")
	}

	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := ExpenseChangedEventFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.EventID != event.EventID || decoded.ExpenseID != 42 || decoded.AccountID != 3 {
		t.Fatalf("decoded event mismatch: %+v", decoded)
	}
	if decoded.Action != ActionPersisted {
		t.Fatalf("action = %q", decoded.Action)
	}

	day, err := decoded.ExpenseDay()
	if err != nil {
		t.Fatalf("ExpenseDay: %v", err)
	}
	if day != expense.Day {
		t.Fatalf("day = %v, want %v", day, expense.Day)
	}
}

func TestExpenseChangedEventFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ExpenseChangedEventFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
