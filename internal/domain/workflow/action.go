package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// Action is an operator action on an expense
type Action string

const (
	ActionNone         Action = "NONE"
	ActionApprove      Action = "APPROVE"
	ActionReject       Action = "REJECT"
	ActionPay          Action = "PAY"
	ActionUnapprove    Action = "UNAPPROVE"
	ActionMarkAsUnpaid Action = "MARK_AS_UNPAID"
)

// PermissionFlag names the permission gating an action
type PermissionFlag string

const (
	FlagCanApprove      PermissionFlag = "canApprove"
	FlagCanReject       PermissionFlag = "canReject"
	FlagCanPay          PermissionFlag = "canPay"
	FlagCanUnapprove    PermissionFlag = "canUnapprove"
	FlagCanMarkAsUnpaid PermissionFlag = "canMarkAsUnpaid"
)

var actionFlags = map[Action]PermissionFlag{
	ActionApprove:      FlagCanApprove,
	ActionReject:       FlagCanReject,
	ActionPay:          FlagCanPay,
	ActionUnapprove:    FlagCanUnapprove,
	ActionMarkAsUnpaid: FlagCanMarkAsUnpaid,
}

// ProcessActions lists the process actions in display order
func ProcessActions() []Action {
	return []Action{ActionApprove, ActionReject, ActionPay, ActionUnapprove, ActionMarkAsUnpaid}
}

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// IsProcessAction reports whether the action can be sent to the API
func (a Action) IsProcessAction() bool {
	_, ok := actionFlags[a]
	return ok
}

// PermissionFlag returns the flag gating the action
func (a Action) PermissionFlag() (PermissionFlag, bool) {
	flag, ok := actionFlags[a]
	return flag, ok
}

// ParseAction parses an action name, case-insensitively
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsProcessAction() {
		return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

// Granted reads a permission flag
func Granted(p entity.Permissions, flag PermissionFlag) bool {
	switch flag {
	case FlagCanApprove:
		return p.CanApprove
	case FlagCanReject:
		return p.CanReject
	case FlagCanPay:
		return p.CanPay
	case FlagCanUnapprove:
		return p.CanUnapprove
	case FlagCanMarkAsUnpaid:
		return p.CanMarkAsUnpaid
	default:
		return false
	}
}

// IsVisible reports whether the control for the action is shown.
// Visibility depends only on permissions, never on the in-flight state.
func IsVisible(a Action, p entity.Permissions) bool {
	flag, ok := a.PermissionFlag()
	return ok && Granted(p, flag)
}

// HasProcessButtons reports whether at least one process control would be shown
func HasProcessButtons(p *entity.Permissions) bool {
	if p == nil {
		return false
	}
	return p.CanApprove || p.CanReject || p.CanPay || p.CanUnapprove || p.CanMarkAsUnpaid
}
