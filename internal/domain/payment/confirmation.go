package payment

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/payout"
)

// SubmitOption is one of the buttons offered by the pay confirmation
type SubmitOption struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	IsManual bool   `json:"is_manual"`
}

// Submit option keys
const (
	OptionPay        = "pay"
	OptionPayWith    = "pay_with"
	OptionMarkAsPaid = "mark_as_paid"
)

// SubmitOptions lists the ways an expense can be paid for a payout kind.
// Known payout channels can be paid through the platform or marked as paid
// manually; OTHER only gets a generic pay.
func SubmitOptions(t entity.PayoutMethodType) []SubmitOption {
	if payout.Classify(t) == payout.CategoryOther {
		return []SubmitOption{{Key: OptionPay, Label: "Pay", IsManual: false}}
	}
	return []SubmitOption{
		{Key: OptionPayWith, Label: "Pay with " + payout.Label(t), IsManual: false},
		{Key: OptionMarkAsPaid, Label: "Mark as paid", IsManual: true},
	}
}

// Confirmation is everything shown before the operator submits a payment
type Confirmation struct {
	PayoutType   entity.PayoutMethodType `json:"payout_type"`
	Category     payout.DisplayCategory  `json:"category"`
	PayoutLabel  string                  `json:"payout_label"`
	Currency     string                  `json:"currency"`
	ProcessorFee *decimal.Decimal        `json:"processor_fee"`
	FeeInvalid   bool                    `json:"fee_invalid"`
	TotalAmount  int64                   `json:"total_amount"`
	Options      []SubmitOption          `json:"options"`
}

// NewConfirmation builds the confirmation for an expense and its fee adjustment
func NewConfirmation(expense *entity.Expense, fee *FeeAdjustment) Confirmation {
	t := payout.TypeOf(expense.PayoutMethod)
	return Confirmation{
		PayoutType:   t,
		Category:     payout.Classify(t),
		PayoutLabel:  payout.Label(t),
		Currency:     fee.Currency(),
		ProcessorFee: fee.Fee(),
		FeeInvalid:   fee.Invalid(),
		TotalAmount:  fee.TotalAmount(),
		Options:      SubmitOptions(t),
	}
}
