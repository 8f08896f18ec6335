package port

import (
	"context"
	"errors"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// ErrExpenseNotFound is returned by ExpenseSource when the API has no such expense
var ErrExpenseNotFound = errors.New("expense not found")

// ProcessRequest is the remote processExpense mutation input
type ProcessRequest struct {
	Expense       entity.ExpenseRef     `json:"expense"`
	Action        string                `json:"action"`
	PaymentParams *entity.PaymentParams `json:"paymentParams,omitempty"`
}

// ExpenseProcessor sends process actions to the remote API and returns the updated
// expense with the collective it is paid from. The collective may be nil when the
// API did not return it.
type ExpenseProcessor interface {
	ProcessExpense(ctx context.Context, req ProcessRequest) (*entity.Expense, *entity.Collective, error)
}

// ExpenseSource loads an expense together with the collective it was submitted to
type ExpenseSource interface {
	FetchExpense(ctx context.Context, ref entity.ExpenseRef) (*entity.Expense, *entity.Collective, error)
}

// TransportError is a failure of the remote API. Message is safe to show to operators.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorMessage extracts the operator-facing message of an error
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}

// MessageSender delivers plain text notifications to a chat
type MessageSender interface {
	SendText(ctx context.Context, receiveID string, content string) error
}
