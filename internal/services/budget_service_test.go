package services

import (
	"context"
	"testing"

	"simplebudget/internal/core"
)

func TestMaterializeRecurringCreatesMonthlyInstance(t *testing.T) {
	ctx := context.Background()
	month := core.NewDay(2026, 9, 1)

	store := newServiceFakeStore()
	store.accounts = []core.Account{{ID: 1, Name: "Default", IsActive: true}}
	store.recurringBudgets[1] = &core.RecurringBudget{
		ID:           5,
		Goal:         "Food",
		AccountID:    1,
		BudgetAmount: core.Money{Cents: 40000},
		Type:         core.Monthly,
		StartDay:     core.NewDay(2026, 1, 1),
	}
	// Previous month's instance carries the category links forward.
	store.budgets = []core.Budget{{
		ID:          8,
		Goal:        "Food",
		AccountID:   1,
		StartDay:    core.NewDay(2026, 8, 1),
		EndDay:      core.NewDay(2026, 8, 31),
		RecurringID: 5,
		CategoryIDs: []int64{2, 3},
	}}

	service := NewBudgetService(store)

	created, err := service.MaterializeRecurring(ctx, month)
	if err != nil {
		t.Fatalf("MaterializeRecurring: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	instance := store.budgets[len(store.budgets)-1]
	if instance.StartDay != month || instance.EndDay != core.NewDay(2026, 9, 30) {
		t.Fatalf("instance range %v..%v", instance.StartDay, instance.EndDay)
	}
	if instance.RecurringID != 5 || len(instance.CategoryIDs) != 2 {
		t.Fatalf("unexpected instance: %+v", instance)
	}
	if instance.RemainingAmount != instance.BudgetAmount {
		t.Fatalf("remaining = %v, want full budget", instance.RemainingAmount)
	}

	// Second run is a no-op because the instance now exists.
	created, err = service.MaterializeRecurring(ctx, month)
	if err != nil {
		t.Fatalf("MaterializeRecurring second run: %v", err)
	}
	if created != 0 {
		t.Fatalf("second run created = %d, want 0", created)
	}
}

func TestRecomputeAllCoversEveryAccount(t *testing.T) {
	ctx := context.Background()
	store := newServiceFakeStore()
	store.accounts = []core.Account{{ID: 1}, {ID: 2}}
	oldest := core.NewDay(2026, 1, 1)
	store.oldestBudget = &oldest

	service := NewBudgetService(store)
	if err := service.RecomputeAll(ctx); err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if len(store.recomputes) != 2 {
		t.Fatalf("recomputed %d accounts, want 2", len(store.recomputes))
	}
}

func TestRecomputeAllNoBudgetsIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newServiceFakeStore()
	store.accounts = []core.Account{{ID: 1}}

	service := NewBudgetService(store)
	if err := service.RecomputeAll(ctx); err != nil {
		t.Fatalf("RecomputeAll: %v", err)
	}
	if len(store.recomputes) != 0 {
		t.Fatalf("recomputed %d accounts, want 0", len(store.recomputes))
	}
}
