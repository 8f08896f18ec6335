package entity

// PayoutMethodType tags the kind of a payout method
type PayoutMethodType string

const (
	PayoutMethodPayPal      PayoutMethodType = "PAYPAL"
	PayoutMethodBankAccount PayoutMethodType = "BANK_ACCOUNT"
	PayoutMethodOther       PayoutMethodType = "OTHER"
)

// PayoutMethodTypes lists every defined payout method kind
func PayoutMethodTypes() []PayoutMethodType {
	return []PayoutMethodType{PayoutMethodPayPal, PayoutMethodBankAccount, PayoutMethodOther}
}

// Expense status constants as reported by the API
const (
	ExpenseStatusPending    = "PENDING"
	ExpenseStatusApproved   = "APPROVED"
	ExpenseStatusRejected   = "REJECTED"
	ExpenseStatusProcessing = "PROCESSING"
	ExpenseStatusPaid       = "PAID"
	ExpenseStatusError      = "ERROR"
)

// Action log outcome constants
const (
	OutcomeSucceeded = "SUCCEEDED"
	OutcomeFailed    = "FAILED"
)
