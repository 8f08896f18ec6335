package event

// Type identifies the type of domain event
type Type string

const (
	TypeActionSucceeded Type = "expense.action_succeeded"
	TypeActionFailed    Type = "expense.action_failed"
)

// Payload keys
const (
	KeyError        = "error"
	KeyProcessorFee = "processor_fee"
	KeyIsManual     = "is_manual"
	KeyCurrency     = "currency"
	KeyStatus       = "status"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeActionSucceeded, TypeActionFailed:
		return true
	default:
		return false
	}
}
