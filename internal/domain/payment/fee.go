package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// Submission is what the operator confirms before paying.
// ProcessorFee is in major units; nil means the fee was left unset.
type Submission struct {
	ProcessorFee *decimal.Decimal `json:"processor_fee"`
	IsManual     bool             `json:"is_manual"`
}

// Params converts the submission into the wire payment params, moving the fee
// into the minor units of the given currency
func (s Submission) Params(currency string) (*entity.PaymentParams, error) {
	params := &entity.PaymentParams{IsManual: s.IsManual}
	if s.ProcessorFee == nil {
		return params, nil
	}
	minor, err := feeToMinor(*s.ProcessorFee, currency)
	if err != nil {
		return nil, err
	}
	params.PaymentProcessorFee = &minor
	return params, nil
}

// FeeAdjustment holds the editable processor fee of a pending payment
type FeeAdjustment struct {
	expenseAmount int64
	currency      string
	fee           *decimal.Decimal
	invalid       bool
}

// NewFeeAdjustment starts with an unset fee. currency is the collective's currency.
func NewFeeAdjustment(expenseAmount int64, currency string) *FeeAdjustment {
	return &FeeAdjustment{expenseAmount: expenseAmount, currency: currency}
}

// SetFee parses operator input. Empty input clears the fee. Invalid input keeps
// the previous value, marks the field invalid and returns ErrInvalidFee.
func (f *FeeAdjustment) SetFee(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		f.fee = nil
		f.invalid = false
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		f.invalid = true
		return fmt.Errorf("%w: %q is not a number", ErrInvalidFee, raw)
	}
	return f.SetFeeAmount(&value)
}

// SetFeeAmount sets an already parsed fee; nil clears it
func (f *FeeAdjustment) SetFeeAmount(value *decimal.Decimal) error {
	if value == nil {
		f.fee = nil
		f.invalid = false
		return nil
	}
	if _, err := feeToMinor(*value, f.currency); err != nil {
		f.invalid = true
		return err
	}
	v := *value
	f.fee = &v
	f.invalid = false
	return nil
}

// Fee returns the current fee in major units, nil when unset
func (f *FeeAdjustment) Fee() *decimal.Decimal {
	return f.fee
}

// Invalid reports whether the last input was rejected
func (f *FeeAdjustment) Invalid() bool {
	return f.invalid
}

// Currency returns the currency the fee is expressed in
func (f *FeeAdjustment) Currency() string {
	return f.currency
}

// FeeMinor returns the fee in minor units, 0 when unset
func (f *FeeAdjustment) FeeMinor() int64 {
	if f.fee == nil {
		return 0
	}
	// validated on set
	minor, _ := entity.MajorToMinor(*f.fee, f.currency)
	return minor
}

// TotalAmount is the expense amount plus the fee, in minor units
func (f *FeeAdjustment) TotalAmount() int64 {
	return f.expenseAmount + f.FeeMinor()
}

// Submission builds the payload confirmed by the operator
func (f *FeeAdjustment) Submission(isManual bool) Submission {
	s := Submission{IsManual: isManual}
	if f.fee != nil {
		v := *f.fee
		s.ProcessorFee = &v
	}
	return s
}

func feeToMinor(value decimal.Decimal, currency string) (int64, error) {
	if value.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidFee, value.String())
	}
	minor, err := entity.MajorToMinor(value, currency)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFee, err)
	}
	return minor, nil
}
