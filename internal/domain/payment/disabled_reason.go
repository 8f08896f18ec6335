// Package payment holds the pre-payment decision logic: why paying is blocked,
// the processor fee adjustment and the confirmation shown before submission.
package payment

import (
	"fmt"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// ReasonCode identifies why the pay action is unavailable
type ReasonCode string

const (
	ReasonNoHost              ReasonCode = "NO_HOST"
	ReasonInsufficientBalance ReasonCode = "INSUFFICIENT_BALANCE"
	ReasonPlanLimitReached    ReasonCode = "PLAN_LIMIT_REACHED"
)

// DisabledReason explains why an expense cannot be paid right now
type DisabledReason struct {
	Code    ReasonCode   `json:"code"`
	Message string       `json:"message"`
	Host    *entity.Host `json:"-"`
}

// UpgradeURL links to the host plan page when the reason is a plan limit
func (r *DisabledReason) UpgradeURL() string {
	if r == nil || r.Code != ReasonPlanLimitReached || r.Host == nil {
		return ""
	}
	return fmt.Sprintf("/%s/edit/host-plan", r.Host.Slug)
}

// PayoutRule checks a host-level constraint tied to one payout method kind.
// It returns nil when the rule does not block payment.
type PayoutRule func(host *entity.Host) *DisabledReason

// DefaultPayoutRules only constrains bank transfers, which go through TransferWise
// and count against the host plan.
var DefaultPayoutRules = map[entity.PayoutMethodType][]PayoutRule{
	entity.PayoutMethodBankAccount: {TransferwisePlanLimit},
}

// TransferwisePlanLimit blocks payment once the host used up its TransferWise payouts
func TransferwisePlanLimit(host *entity.Host) *DisabledReason {
	limit := host.Plan.TransferwisePayoutsLimit
	if limit == nil || host.Plan.TransferwisePayouts < *limit {
		return nil
	}
	return &DisabledReason{
		Code:    ReasonPlanLimitReached,
		Message: "You reached your plan's limit, upgrade your plan to continue paying expense with TransferWise",
		Host:    host,
	}
}

// Evaluator computes the disabled reason of the pay action
type Evaluator struct {
	rules map[entity.PayoutMethodType][]PayoutRule
}

// NewEvaluator creates an evaluator with the given per-kind rule table
func NewEvaluator(rules map[entity.PayoutMethodType][]PayoutRule) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate returns why the expense cannot be paid, or nil when it can.
// Checks run in order and the first match wins.
func (e *Evaluator) Evaluate(expense *entity.Expense, collective *entity.Collective, payoutMethod *entity.PayoutMethod) *DisabledReason {
	if collective == nil || collective.Host == nil {
		return &DisabledReason{Code: ReasonNoHost, Message: "Expenses cannot be paid without a host"}
	}
	if collective.Balance < expense.Amount {
		return &DisabledReason{Code: ReasonInsufficientBalance, Message: "Insufficient balance"}
	}
	if payoutMethod == nil {
		return nil
	}
	for _, rule := range e.rules[payoutMethod.Type] {
		if reason := rule(collective.Host); reason != nil {
			return reason
		}
	}
	return nil
}

var defaultEvaluator = NewEvaluator(DefaultPayoutRules)

// EvaluateDisabledReason evaluates with DefaultPayoutRules
func EvaluateDisabledReason(expense *entity.Expense, collective *entity.Collective, payoutMethod *entity.PayoutMethod) *DisabledReason {
	return defaultEvaluator.Evaluate(expense, collective, payoutMethod)
}
