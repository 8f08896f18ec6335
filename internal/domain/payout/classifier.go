// Package payout maps payout method kinds to their display category and label.
package payout

import "github.com/garyjia/expense-desk/internal/domain/entity"

// DisplayCategory selects the icon shown next to a payout method
type DisplayCategory string

const (
	CategoryPayPal       DisplayCategory = "paypal"
	CategoryTransferwise DisplayCategory = "transferwise"
	CategoryOther        DisplayCategory = "other"
)

// Classify maps a payout method kind to its display category.
// Unknown and empty kinds fall back to CategoryOther.
func Classify(t entity.PayoutMethodType) DisplayCategory {
	switch t {
	case entity.PayoutMethodPayPal:
		return CategoryPayPal
	case entity.PayoutMethodBankAccount:
		return CategoryTransferwise
	default:
		return CategoryOther
	}
}

// Label returns the operator-facing name of a payout method kind.
// Bank accounts are paid through TransferWise, so they are labelled as such.
func Label(t entity.PayoutMethodType) string {
	switch t {
	case entity.PayoutMethodPayPal:
		return "PayPal"
	case entity.PayoutMethodBankAccount:
		return "TransferWise"
	default:
		return "Other"
	}
}

// TypeOf returns the kind of a possibly missing payout method
func TypeOf(pm *entity.PayoutMethod) entity.PayoutMethodType {
	if pm == nil || pm.Type == "" {
		return entity.PayoutMethodOther
	}
	return pm.Type
}
