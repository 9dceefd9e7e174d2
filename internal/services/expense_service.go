package services

import (
	"context"
	"fmt"
	"log/slog"

	"simplebudget/internal/amqp"
	"simplebudget/internal/core"
	"simplebudget/internal/storage"
)

// EventPublisher publishes mutation events for downstream workers.
type EventPublisher interface {
	PublishExpenseChanged(ctx context.Context, event *amqp.ExpenseChangedEvent) error
}

// ExpenseService orchestrates expense writes across the store and AMQP.
type ExpenseService struct {
	store     storage.Store
	publisher EventPublisher
}

func NewExpenseService(store storage.Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// CreateExpense validates and persists an expense, then publishes a change
// event. An uncategorized expense lands in the miscellaneous category.
func (s *ExpenseService) CreateExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	if err := expense.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}

	if expense.CategoryID == 0 {
		misc, err := s.store.MiscellaneousCategory(ctx)
		if err != nil {
			return core.Expense{}, fmt.Errorf("resolve miscellaneous category: %w", err)
		}
		expense.CategoryID = misc.ID
	}

	persisted, err := s.store.PersistExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("persist expense: %w", err)
	}

	s.publish(ctx, amqp.ActionPersisted, persisted)
	return persisted, nil
}

// DeleteExpense removes an expense and publishes a change event.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expense core.Expense) error {
	if err := s.store.DeleteExpense(ctx, expense); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.ActionDeleted, expense)
	return nil
}

// publish is best effort. The write already succeeded locally; the budget
// worker catches up on its nightly pass if an event is lost.
func (s *ExpenseService) publish(ctx context.Context, action string, expense core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event",
			"action", action, "expense_id", expense.ID)
		return
	}

	event := amqp.NewExpenseChangedEvent(action, expense)
	if err := s.publisher.PublishExpenseChanged(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense changed event",
			"action", action,
			"expense_id", expense.ID,
			"error", err)
	}
}
