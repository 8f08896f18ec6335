package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

type attemptKey struct{}

type attempt struct {
	action      Action
	permissions entity.Permissions
}

// permitted guards TriggerStart on the attempted action's permission flag
func permitted(ctx context.Context) bool {
	a, ok := ctx.Value(attemptKey{}).(attempt)
	return ok && IsVisible(a.action, a.permissions)
}

// processBuilder is built on first use so it never depends on package init order
var processBuilder = sync.OnceValue(func() StateMachineBuilder {
	b := NewBuilder()
	b.Configure(StateIdle).
		PermitIf(TriggerStart, StateActionInFlight, permitted)
	b.Configure(StateActionInFlight).
		Permit(TriggerSucceed, StateActionSucceeded).
		Permit(TriggerFail, StateActionFailed)
	b.Configure(StateActionSucceeded).
		PermitIf(TriggerStart, StateActionInFlight, permitted)
	b.Configure(StateActionFailed).
		PermitIf(TriggerStart, StateActionInFlight, permitted)
	return b
})

// ButtonState is the rendering state of one action control
type ButtonState struct {
	Action   Action `json:"action"`
	Visible  bool   `json:"visible"`
	Disabled bool   `json:"disabled"`
	Loading  bool   `json:"loading"`
}

// ProcessMachine holds the pending action of one expense.
// It is not safe for concurrent use; callers serialize access.
type ProcessMachine struct {
	machine  StateMachine
	selected Action
	lastErr  error
}

// NewProcessMachine creates a machine in StateIdle with no selected action
func NewProcessMachine() *ProcessMachine {
	return &ProcessMachine{
		machine:  processBuilder().Build(StateIdle),
		selected: ActionNone,
	}
}

// State returns the current state
func (p *ProcessMachine) State() State {
	return p.machine.State()
}

// Selected returns the last triggered action, kept after resolution
func (p *ProcessMachine) Selected() Action {
	return p.selected
}

// InFlight reports whether an action awaits its remote result
func (p *ProcessMachine) InFlight() bool {
	return p.machine.State() == StateActionInFlight
}

// LastError returns the failure of the last action, nil unless StateActionFailed
func (p *ProcessMachine) LastError() error {
	return p.lastErr
}

// Start selects the action and moves to StateActionInFlight.
// It leaves the machine untouched when an action is already in flight or the
// permissions do not grant the action.
func (p *ProcessMachine) Start(ctx context.Context, action Action, permissions entity.Permissions) error {
	if !action.IsProcessAction() {
		return ErrUnknownAction
	}
	if p.InFlight() {
		return ErrActionInFlight
	}

	ctx = context.WithValue(ctx, attemptKey{}, attempt{action: action, permissions: permissions})
	if err := p.machine.Fire(ctx, TriggerStart); err != nil {
		if errors.Is(err, ErrGuardFailed) {
			return ErrPermissionDenied
		}
		return err
	}

	p.selected = action
	return nil
}

// Succeed resolves the in-flight action successfully and clears the error
func (p *ProcessMachine) Succeed(ctx context.Context) error {
	if err := p.machine.Fire(ctx, TriggerSucceed); err != nil {
		return err
	}
	p.lastErr = nil
	return nil
}

// Fail resolves the in-flight action with err. The selected action is kept so
// its control can show the failure.
func (p *ProcessMachine) Fail(ctx context.Context, err error) error {
	if fireErr := p.machine.Fire(ctx, TriggerFail); fireErr != nil {
		return fireErr
	}
	p.lastErr = err
	return nil
}

// Buttons returns the state of every process control for the given permissions.
// While in flight every control is disabled except the selected one, which loads.
func (p *ProcessMachine) Buttons(permissions entity.Permissions) []ButtonState {
	inFlight := p.InFlight()
	buttons := make([]ButtonState, 0, len(actionFlags))
	for _, action := range ProcessActions() {
		isSelected := action == p.selected
		buttons = append(buttons, ButtonState{
			Action:   action,
			Visible:  IsVisible(action, permissions),
			Disabled: inFlight && !isSelected,
			Loading:  inFlight && isSelected,
		})
	}
	return buttons
}
