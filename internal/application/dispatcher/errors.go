package dispatcher

import (
	"errors"

	"github.com/garyjia/expense-desk/internal/domain/payment"
)

// ErrPaymentBlocked is matched by every PaymentBlockedError
var ErrPaymentBlocked = errors.New("payment is blocked")

// PaymentBlockedError is returned when PAY is requested while a disabled reason holds.
// The request never reaches the remote API.
type PaymentBlockedError struct {
	Reason *payment.DisabledReason
}

func (e *PaymentBlockedError) Error() string {
	return "payment is blocked: " + e.Reason.Message
}

func (e *PaymentBlockedError) Is(target error) bool {
	return target == ErrPaymentBlocked
}
