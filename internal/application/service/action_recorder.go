package service

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/event"
)

// ActionRecorder stores every resolved process action in the action log
// and keeps the per-expense summary in step with it
type ActionRecorder struct {
	tx     port.TransactionManager
	repo   port.ActionLogRepository
	logger Logger
}

// NewActionRecorder creates a new ActionRecorder
func NewActionRecorder(tx port.TransactionManager, repo port.ActionLogRepository, logger Logger) *ActionRecorder {
	return &ActionRecorder{tx: tx, repo: repo, logger: logger}
}

// Handle is an event handler for action outcome events.
// The log entry and the summary row are written in one transaction.
func (r *ActionRecorder) Handle(ctx context.Context, evt *event.Event) error {
	entry := EntryFromEvent(evt)
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := r.repo.Create(ctx, entry); err != nil {
			return err
		}
		return r.repo.UpsertSummary(ctx, entry)
	})
	if err != nil {
		return fmt.Errorf("record action %s of expense %s: %w", evt.Action, evt.ExpenseID, err)
	}

	r.logger.Info("Action recorded",
		"expense_id", entry.ExpenseID,
		"action", entry.Action,
		"outcome", entry.Outcome,
	)
	return nil
}

// EntryFromEvent converts an action outcome event into a log entry
func EntryFromEvent(evt *event.Event) *entity.ActionLogEntry {
	entry := &entity.ActionLogEntry{
		ExpenseID:     evt.ExpenseID,
		LegacyID:      evt.LegacyID,
		Action:        evt.Action,
		Outcome:       entity.OutcomeSucceeded,
		IsManual:      evt.GetPayloadBool(event.KeyIsManual),
		Currency:      evt.GetPayloadString(event.KeyCurrency),
		CorrelationID: evt.CorrelationID,
		CreatedAt:     evt.Timestamp,
	}
	if evt.Type == event.TypeActionFailed {
		entry.Outcome = entity.OutcomeFailed
		entry.ErrorMessage = evt.GetPayloadString(event.KeyError)
	}
	if fee, ok := evt.GetPayloadInt(event.KeyProcessorFee); ok {
		entry.ProcessorFee = &fee
	}
	return entry
}
