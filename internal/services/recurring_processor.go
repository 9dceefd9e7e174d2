package services

import (
	"context"
	"fmt"
	"log/slog"

	"simplebudget/internal/core"
	"simplebudget/internal/storage"
)

// RecurringProcessor materializes due recurring expense templates into
// day-dated expenses.
type RecurringProcessor struct {
	store    storage.Store
	expenses *ExpenseService
}

func NewRecurringProcessor(store storage.Store, expenses *ExpenseService) *RecurringProcessor {
	return &RecurringProcessor{
		store:    store,
		expenses: expenses,
	}
}

// ProcessDue walks every active template and creates an expense for each one
// that is due today. A failing template is logged and skipped; the rest of
// the batch still runs.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, today core.Day) (int, error) {
	if p.store == nil || p.expenses == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.store.ActiveRecurringExpenses(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("get active recurring expenses: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expenses",
		"total_active", len(templates),
		"day", today.String())

	processed := 0
	for _, template := range templates {
		checker, err := CheckerFor(template.Type)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring template",
				"id", template.ID,
				"error", err)
			continue
		}

		if !checker.IsDue(template.LastMaterialized, today, template.StartDay) {
			continue
		}

		expense := core.Expense{
			Title:       template.Title,
			Amount:      template.Amount,
			Day:         today,
			CategoryID:  template.CategoryID,
			AccountID:   template.AccountID,
			RecurringID: template.ID,
		}

		if _, err := p.expenses.CreateExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from template",
				"recurring_id", template.ID,
				"title", template.Title,
				"error", err)
			continue
		}

		// The expense exists even if this bookkeeping write fails; the
		// template is then retried on the next run.
		if err := p.store.MarkRecurringMaterialized(ctx, template.ID, today); err != nil {
			slog.ErrorContext(ctx, "Failed to mark template materialized",
				"recurring_id", template.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created expense from recurring template",
			"recurring_id", template.ID,
			"title", template.Title,
			"amount_cents", template.Amount.Cents,
			"type", template.Type)
	}

	slog.InfoContext(ctx, "Recurring expense processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
