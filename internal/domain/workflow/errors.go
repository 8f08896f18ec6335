package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not configured for the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when every guarded transition rejected the trigger
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrActionInFlight is returned when an action is triggered while another one is pending
	ErrActionInFlight = errors.New("an action is already in flight")

	// ErrPermissionDenied is returned when the expense permissions do not allow the action
	ErrPermissionDenied = errors.New("action not permitted")

	// ErrUnknownAction is returned for actions outside the process action set
	ErrUnknownAction = errors.New("unknown process action")
)
