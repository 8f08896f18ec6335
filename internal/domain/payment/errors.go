package payment

import "errors"

var (
	// ErrInvalidFee is returned when a processor fee is negative, not a number,
	// or more precise than the collective's currency allows
	ErrInvalidFee = errors.New("invalid processor fee")
)
