package entity

import "time"

// Expense represents a reimbursement request submitted against a collective
type Expense struct {
	ID           string        `json:"id"`
	LegacyID     int64         `json:"legacy_id"`
	Description  string        `json:"description,omitempty"`
	Amount       int64         `json:"amount"` // minor currency units
	Currency     string        `json:"currency"`
	Status       string        `json:"status"`
	PayoutMethod *PayoutMethod `json:"payout_method,omitempty"`
	Permissions  Permissions   `json:"permissions"`
	Activities   []Activity    `json:"activities,omitempty"`
}

// Ref returns the identity used to address the expense remotely
func (e *Expense) Ref() ExpenseRef {
	return ExpenseRef{ID: e.ID, LegacyID: e.LegacyID}
}

// ExpenseRef identifies an expense by its public id, its legacy numeric id, or both
type ExpenseRef struct {
	ID       string `json:"id,omitempty"`
	LegacyID int64  `json:"legacyId,omitempty"`
}

// IsZero reports whether the reference carries no identity at all
func (r ExpenseRef) IsZero() bool {
	return r.ID == "" && r.LegacyID == 0
}

// PayoutMethod is the channel through which an expense gets paid
type PayoutMethod struct {
	ID   string           `json:"id,omitempty"`
	Type PayoutMethodType `json:"type"`
}

// Collective is the account paying the expense
type Collective struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Currency string `json:"currency"`
	Balance  int64  `json:"balance"` // minor currency units
	Host     *Host  `json:"host,omitempty"`
}

// Host is the fiscal entity holding funds on behalf of a collective
type Host struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name,omitempty"`
	Plan Plan   `json:"plan"`
}

// Plan holds the host's payout quotas. A nil limit means unlimited.
type Plan struct {
	TransferwisePayouts      int  `json:"transferwise_payouts"`
	TransferwisePayoutsLimit *int `json:"transferwise_payouts_limit"`
}

// Permissions are computed server-side and never inferred locally
type Permissions struct {
	CanApprove      bool `json:"can_approve"`
	CanReject       bool `json:"can_reject"`
	CanPay          bool `json:"can_pay"`
	CanUnapprove    bool `json:"can_unapprove"`
	CanMarkAsUnpaid bool `json:"can_mark_as_unpaid"`
}

// Activity is one entry of the expense timeline returned by the API
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentParams is the payment part of a process request.
// PaymentProcessorFee is expressed in minor units; nil means the operator left it unset.
type PaymentParams struct {
	PaymentProcessorFee *int64 `json:"paymentProcessorFee,omitempty"`
	IsManual            bool   `json:"isManual"`
}
