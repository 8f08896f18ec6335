package entity

import "time"

// ActionLogEntry records one resolved process action
type ActionLogEntry struct {
	ID            int64     `json:"id"`
	ExpenseID     string    `json:"expense_id"`
	LegacyID      int64     `json:"legacy_id"`
	Action        string    `json:"action"`
	Outcome       string    `json:"outcome"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	ProcessorFee  *int64    `json:"processor_fee,omitempty"`
	IsManual      bool      `json:"is_manual"`
	Currency      string    `json:"currency,omitempty"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ActionSummary aggregates the action log of one expense
type ActionSummary struct {
	ExpenseID   string    `json:"expense_id"`
	LegacyID    int64     `json:"legacy_id"`
	LastAction  string    `json:"last_action,omitempty"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Attempts    int       `json:"attempts"`
	Failures    int       `json:"failures"`
	UpdatedAt   time.Time `json:"updated_at"`
}
