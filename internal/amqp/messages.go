package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the notification payloads sharing the queue.
type Kind string

const (
	KindBudgetWarning      Kind = "budget_warning"
	KindBudgetExceeded     Kind = "budget_exceeded"
	KindRecurringProcessed Kind = "recurring_processed"
)

// BudgetAlert carries everything the mail template needs so the consumer
// never has to read the database.
type BudgetAlert struct {
	BudgetID    uuid.UUID `json:"budget_id"`
	UserID      uuid.UUID `json:"user_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	Amount      string    `json:"amount"`
	SpentAmount string    `json:"spent_amount"`
	Remaining   string    `json:"remaining"`
	Percentage  int       `json:"percentage"`
}

// RecurringProcessed announces that a recurring template materialized into a
// real transaction.
type RecurringProcessed struct {
	RecurringID     uuid.UUID `json:"recurring_id"`
	TransactionID   uuid.UUID `json:"transaction_id"`
	UserID          uuid.UUID `json:"user_id"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	ExecutedAt      time.Time `json:"executed_at"`
	NextExecutionAt time.Time `json:"next_execution_at"`
}

// NotificationMessage is the queue envelope. Exactly one payload field is
// set, matching Kind.
type NotificationMessage struct {
	Kind      Kind                `json:"kind"`
	Timestamp time.Time           `json:"timestamp"`
	Budget    *BudgetAlert        `json:"budget,omitempty"`
	Recurring *RecurringProcessed `json:"recurring,omitempty"`
}

func NewBudgetAlertMessage(kind Kind, alert *BudgetAlert) *NotificationMessage {
	return &NotificationMessage{
		Kind:      kind,
		Timestamp: time.Now(),
		Budget:    alert,
	}
}

func NewRecurringProcessedMessage(event *RecurringProcessed) *NotificationMessage {
	return &NotificationMessage{
		Kind:      KindRecurringProcessed,
		Timestamp: time.Now(),
		Recurring: event,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
