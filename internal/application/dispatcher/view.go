package dispatcher

import (
	"github.com/garyjia/expense-desk/internal/domain/payment"
	"github.com/garyjia/expense-desk/internal/domain/workflow"
)

// ReasonView is the tooltip shown on a disabled pay control
type ReasonView struct {
	Code       payment.ReasonCode `json:"code"`
	Message    string             `json:"message"`
	HostSlug   string             `json:"host,omitempty"`
	UpgradeURL string             `json:"upgrade_url,omitempty"`
}

// NewReasonView builds the tooltip of a disabled reason, nil when there is none
func NewReasonView(r *payment.DisabledReason) *ReasonView {
	if r == nil {
		return nil
	}
	v := &ReasonView{Code: r.Code, Message: r.Message, UpgradeURL: r.UpgradeURL()}
	if r.Host != nil {
		v.HostSlug = r.Host.Slug
	}
	return v
}

// View is a read-only snapshot of an expense's process controls
type View struct {
	ExpenseID         string                 `json:"expense_id"`
	LegacyID          int64                  `json:"legacy_id"`
	Status            string                 `json:"status"`
	State             workflow.State         `json:"state"`
	Selected          workflow.Action        `json:"selected"`
	InFlight          bool                   `json:"in_flight"`
	HasProcessButtons bool                   `json:"has_process_buttons"`
	Buttons           []workflow.ButtonState `json:"buttons"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	PayDisabledReason *ReasonView            `json:"pay_disabled_reason"`
}

// Button returns the state of one control
func (v View) Button(action workflow.Action) (workflow.ButtonState, bool) {
	for _, b := range v.Buttons {
		if b.Action == action {
			return b, true
		}
	}
	return workflow.ButtonState{}, false
}
