package services

import (
	"context"
	"testing"

	"simplebudget/internal/core"
)

func TestProcessDueCreatesExpensesFromDueTemplates(t *testing.T) {
	ctx := context.Background()
	today := core.NewDay(2026, 9, 1)

	store := newServiceFakeStore()
	store.templates = []core.RecurringExpense{
		{
			ID:         1,
			Title:      "Rent",
			Amount:     core.Money{Cents: 95000},
			StartDay:   core.NewDay(2025, 1, 1),
			Type:       core.Monthly,
			CategoryID: 2,
			AccountID:  1,
			// Last month, so due again on the 1st.
			LastMaterialized: core.NewDay(2026, 8, 1),
		},
		{
			ID:               2,
			Title:            "Coffee",
			Amount:           core.Money{Cents: 350},
			StartDay:         core.NewDay(2026, 1, 1),
			Type:             core.Daily,
			CategoryID:       3,
			AccountID:        1,
			LastMaterialized: today, // already ran today
		},
	}

	processor := NewRecurringProcessor(store, NewExpenseService(store, nil))

	processed, err := processor.ProcessDue(ctx, today)
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}

	if len(store.persisted) != 1 {
		t.Fatalf("persisted %d expenses, want 1", len(store.persisted))
	}
	expense := store.persisted[0]
	if expense.Title != "Rent" || expense.RecurringID != 1 || expense.Day != today {
		t.Fatalf("unexpected expense: %+v", expense)
	}

	if day, ok := store.materializedDays[1]; !ok || day != today {
		t.Fatalf("template 1 not marked materialized for %v", today)
	}
	if _, ok := store.materializedDays[2]; ok {
		t.Fatal("template 2 should not have been touched")
	}
}

func TestProcessDueSkipsUnknownRecurrenceType(t *testing.T) {
	ctx := context.Background()
	store := newServiceFakeStore()
	store.templates = []core.RecurringExpense{
		{ID: 1, Title: "Weird", Amount: core.Money{Cents: 100}, Type: core.RecurrenceType("fortnightly"), AccountID: 1, CategoryID: 1},
	}

	processor := NewRecurringProcessor(store, NewExpenseService(store, nil))

	processed, err := processor.ProcessDue(ctx, core.NewDay(2026, 9, 1))
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if processed != 0 {
		t.Fatalf("processed = %d, want 0", processed)
	}
	if len(store.persisted) != 0 {
		t.Fatalf("persisted %d expenses, want 0", len(store.persisted))
	}
}
