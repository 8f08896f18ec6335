package workflow

// State is a state of the expense process machine
type State string

const (
	StateIdle            State = "IDLE"
	StateActionInFlight  State = "ACTION_IN_FLIGHT"
	StateActionSucceeded State = "ACTION_SUCCEEDED"
	StateActionFailed    State = "ACTION_FAILED"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state belongs to the process machine
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateActionInFlight, StateActionSucceeded, StateActionFailed:
		return true
	default:
		return false
	}
}

// IsResolved returns true once the last action finished, successfully or not
func (s State) IsResolved() bool {
	return s == StateActionSucceeded || s == StateActionFailed
}
