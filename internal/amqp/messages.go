package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"simplebudget/internal/core"
)

const (
	ActionPersisted = "persisted"
	ActionDeleted   = "deleted"
)

// ExpenseChangedEvent tells the budget worker which account and day range
// were touched. The worker recomputes from the database, so the event only
// carries coordinates, not amounts.
type ExpenseChangedEvent struct {
	EventID   string    `json:"event_id"`
	Action    string    `json:"action"`
	ExpenseID int64     `json:"expense_id"`
	AccountID int64     `json:"account_id"`
	Day       string    `json:"day"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseChangedEvent(action string, expense core.Expense) *ExpenseChangedEvent {
	return &ExpenseChangedEvent{
		EventID:   uuid.NewString(),
		Action:    action,
		ExpenseID: expense.ID,
		AccountID: expense.AccountID,
		Day:       expense.Day.String(),
		Timestamp: time.Now(),
	}
}

func (e *ExpenseChangedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseChangedEventFromJSON(data []byte) (*ExpenseChangedEvent, error) {
	var event ExpenseChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ExpenseDay parses the day the event points at.
func (e *ExpenseChangedEvent) ExpenseDay() (core.Day, error) {
	return core.ParseDay(e.Day)
}
