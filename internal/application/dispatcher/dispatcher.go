// Package dispatcher drives the process actions of a single expense: it gates
// them on permissions and payment rules, sends them to the remote API and
// resolves the process machine with the result.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/event"
	"github.com/garyjia/expense-desk/internal/domain/payment"
	"github.com/garyjia/expense-desk/internal/domain/workflow"
)

// DefaultTimeout bounds one remote call when Deps.Timeout is unset
const DefaultTimeout = 30 * time.Second

// Publisher receives the events raised when an action resolves
type Publisher interface {
	PublishAsync(ctx context.Context, evt *event.Event)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Deps are the collaborators shared by every dispatcher
type Deps struct {
	Processor port.ExpenseProcessor
	Publisher Publisher          // optional
	Logger    Logger             // optional
	Evaluator *payment.Evaluator // defaults to payment.DefaultPayoutRules
	Timeout   time.Duration
}

// ActionDispatcher owns the process machine of one expense.
// It is safe for concurrent use; at most one action is in flight.
type ActionDispatcher struct {
	mu         sync.Mutex
	expense    *entity.Expense
	collective *entity.Collective
	machine    *workflow.ProcessMachine
	fee        *payment.FeeAdjustment

	processor port.ExpenseProcessor
	publisher Publisher
	logger    Logger
	evaluator *payment.Evaluator
	timeout   time.Duration
}

// New creates a dispatcher for the expense, paid from collective
func New(expense *entity.Expense, collective *entity.Collective, deps Deps) *ActionDispatcher {
	if deps.Evaluator == nil {
		deps.Evaluator = payment.NewEvaluator(payment.DefaultPayoutRules)
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	d := &ActionDispatcher{
		expense:    expense,
		collective: collective,
		machine:    workflow.NewProcessMachine(),
		processor:  deps.Processor,
		publisher:  deps.Publisher,
		logger:     deps.Logger,
		evaluator:  deps.Evaluator,
		timeout:    deps.Timeout,
	}
	d.fee = payment.NewFeeAdjustment(expense.Amount, d.feeCurrency())
	return d
}

// Expense returns the currently held expense
func (d *ActionDispatcher) Expense() *entity.Expense {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expense
}

// Refresh replaces the held expense and collective with fresh copies.
// It is refused while an action is in flight since the result will replace the expense.
func (d *ActionDispatcher) Refresh(expense *entity.Expense, collective *entity.Collective) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.machine.InFlight() {
		return workflow.ErrActionInFlight
	}
	d.expense = expense
	d.collective = collective
	d.resetFee()
	return nil
}

// Collective returns the currently held collective
func (d *ActionDispatcher) Collective() *entity.Collective {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.collective
}

// ShareCollective replaces the held collective with a fresher copy of the same
// account, e.g. after another expense paid from it. It reports whether the copy
// was taken. The fee is kept since the currency does not change.
func (d *ActionDispatcher) ShareCollective(collective *entity.Collective) bool {
	if collective == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.collective == nil || d.collective.ID != collective.ID || d.collective == collective {
		return false
	}
	d.collective = collective
	return true
}

// View returns the current controls. The pay disabled reason is recomputed on every call.
func (d *ActionDispatcher) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.viewLocked()
}

// Confirmation returns the pay confirmation for the current fee
func (d *ActionDispatcher) Confirmation() payment.Confirmation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return payment.NewConfirmation(d.expense, d.fee)
}

// SetProcessorFee updates the fee from operator input. On invalid input the
// previous fee is kept and the confirmation is returned with FeeInvalid set.
func (d *ActionDispatcher) SetProcessorFee(raw string) (payment.Confirmation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.fee.SetFee(raw)
	return payment.NewConfirmation(d.expense, d.fee), err
}

// Trigger runs one process action against the remote API and returns the updated expense.
// sub is only read for PAY; a nil sub pays with the current fee adjustment, not manually,
// and is refused with payment.ErrInvalidFee while the fee field holds invalid input.
//
// Triggering while an action is in flight returns workflow.ErrActionInFlight without
// issuing a request. Permission and payment-rule refusals leave the machine untouched.
// A remote failure moves the machine to ACTION_FAILED and is returned as is.
func (d *ActionDispatcher) Trigger(ctx context.Context, action workflow.Action, sub *payment.Submission) (*entity.Expense, error) {
	d.mu.Lock()
	req, err := d.beginLocked(ctx, action, sub)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	d.info("Processing expense action",
		"expense_id", req.Expense.ID,
		"legacy_id", req.Expense.LegacyID,
		"action", req.Action,
	)

	// The call must resolve the machine even when the caller goes away.
	detached := context.WithoutCancel(ctx)
	callCtx, cancel := context.WithTimeout(detached, d.timeout)
	updated, collective, callErr := d.processor.ProcessExpense(callCtx, req)
	cancel()

	d.mu.Lock()
	resolveErr := d.resolveLocked(detached, updated, collective, callErr)
	status := d.expense.Status
	d.mu.Unlock()

	if resolveErr != nil {
		return nil, fmt.Errorf("failed to resolve action %s: %w", action, resolveErr)
	}

	d.publish(detached, req, status, callErr)

	if callErr != nil {
		d.error("Expense action failed",
			"expense_id", req.Expense.ID,
			"action", req.Action,
			"error", callErr,
		)
		return nil, callErr
	}
	return updated, nil
}

// beginLocked validates the action and moves the machine to ACTION_IN_FLIGHT
func (d *ActionDispatcher) beginLocked(ctx context.Context, action workflow.Action, sub *payment.Submission) (port.ProcessRequest, error) {
	if !action.IsProcessAction() {
		return port.ProcessRequest{}, fmt.Errorf("%w: %q", workflow.ErrUnknownAction, action)
	}
	if d.machine.InFlight() {
		return port.ProcessRequest{}, workflow.ErrActionInFlight
	}
	if !workflow.IsVisible(action, d.expense.Permissions) {
		return port.ProcessRequest{}, fmt.Errorf("%w: %s", workflow.ErrPermissionDenied, action)
	}

	req := port.ProcessRequest{Expense: d.expense.Ref(), Action: action.String()}
	if action == workflow.ActionPay {
		if reason := d.evaluator.Evaluate(d.expense, d.collective, d.expense.PayoutMethod); reason != nil {
			return port.ProcessRequest{}, &PaymentBlockedError{Reason: reason}
		}
		if sub == nil {
			if d.fee.Invalid() {
				return port.ProcessRequest{}, payment.ErrInvalidFee
			}
			s := d.fee.Submission(false)
			sub = &s
		}
		params, err := sub.Params(d.feeCurrency())
		if err != nil {
			return port.ProcessRequest{}, err
		}
		req.PaymentParams = params
	}

	if err := d.machine.Start(ctx, action, d.expense.Permissions); err != nil {
		return port.ProcessRequest{}, err
	}
	return req, nil
}

func (d *ActionDispatcher) resolveLocked(ctx context.Context, updated *entity.Expense, collective *entity.Collective, callErr error) error {
	if callErr != nil {
		return d.machine.Fail(ctx, callErr)
	}
	if err := d.machine.Succeed(ctx); err != nil {
		return err
	}
	if collective != nil {
		d.collective = collective
	}
	if updated != nil {
		d.expense = updated
	}
	if updated != nil || collective != nil {
		d.resetFee()
	}
	return nil
}

func (d *ActionDispatcher) viewLocked() View {
	perms := d.expense.Permissions
	buttons := d.machine.Buttons(perms)

	reason := d.evaluator.Evaluate(d.expense, d.collective, d.expense.PayoutMethod)
	if reason != nil {
		for i := range buttons {
			if buttons[i].Action == workflow.ActionPay {
				buttons[i].Disabled = true
			}
		}
	}

	v := View{
		ExpenseID:         d.expense.ID,
		LegacyID:          d.expense.LegacyID,
		Status:            d.expense.Status,
		State:             d.machine.State(),
		Selected:          d.machine.Selected(),
		InFlight:          d.machine.InFlight(),
		HasProcessButtons: workflow.HasProcessButtons(&perms),
		Buttons:           buttons,
		PayDisabledReason: NewReasonView(reason),
	}
	if !v.InFlight && d.machine.State() == workflow.StateActionFailed {
		v.ErrorMessage = port.ErrorMessage(d.machine.LastError())
	}
	return v
}

func (d *ActionDispatcher) publish(ctx context.Context, req port.ProcessRequest, status string, callErr error) {
	if d.publisher == nil {
		return
	}

	payload := map[string]interface{}{event.KeyStatus: status}
	if p := req.PaymentParams; p != nil {
		payload[event.KeyIsManual] = p.IsManual
		payload[event.KeyCurrency] = d.feeCurrency()
		if p.PaymentProcessorFee != nil {
			payload[event.KeyProcessorFee] = *p.PaymentProcessorFee
		}
	}

	eventType := event.TypeActionSucceeded
	if callErr != nil {
		eventType = event.TypeActionFailed
		payload[event.KeyError] = port.ErrorMessage(callErr)
	}

	d.publisher.PublishAsync(ctx, event.NewEvent(eventType, req.Expense.ID, req.Expense.LegacyID, req.Action, payload))
}

// feeCurrency is the currency the processor fee is entered in
func (d *ActionDispatcher) feeCurrency() string {
	if d.collective != nil && d.collective.Currency != "" {
		return d.collective.Currency
	}
	return d.expense.Currency
}

func (d *ActionDispatcher) resetFee() {
	d.fee = payment.NewFeeAdjustment(d.expense.Amount, d.feeCurrency())
}

func (d *ActionDispatcher) info(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *ActionDispatcher) error(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
