package graphql

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type gqlError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

type expenseNode struct {
	ID           string `json:"id"`
	LegacyID     int64  `json:"legacyId"`
	Description  string `json:"description"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	PayoutMethod *struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"payoutMethod"`
	Permissions struct {
		CanApprove      bool `json:"canApprove"`
		CanUnapprove    bool `json:"canUnapprove"`
		CanReject       bool `json:"canReject"`
		CanPay          bool `json:"canPay"`
		CanMarkAsUnpaid bool `json:"canMarkAsUnpaid"`
	} `json:"permissions"`
	Activities []struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"activities"`
	Account *accountNode `json:"account"`
}

type accountNode struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Currency string    `json:"currency"`
	Balance  int64     `json:"balance"`
	Host     *hostNode `json:"host"`
}

type hostNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Plan struct {
		TransferwisePayouts      int  `json:"transferwisePayouts"`
		TransferwisePayoutsLimit *int `json:"transferwisePayoutsLimit"`
	} `json:"plan"`
}

func (n *expenseNode) toEntity() *entity.Expense {
	e := &entity.Expense{
		ID:          n.ID,
		LegacyID:    n.LegacyID,
		Description: n.Description,
		Amount:      n.Amount,
		Currency:    n.Currency,
		Status:      n.Status,
		Permissions: entity.Permissions{
			CanApprove:      n.Permissions.CanApprove,
			CanReject:       n.Permissions.CanReject,
			CanPay:          n.Permissions.CanPay,
			CanUnapprove:    n.Permissions.CanUnapprove,
			CanMarkAsUnpaid: n.Permissions.CanMarkAsUnpaid,
		},
	}
	if n.PayoutMethod != nil {
		e.PayoutMethod = &entity.PayoutMethod{
			ID:   n.PayoutMethod.ID,
			Type: entity.PayoutMethodType(n.PayoutMethod.Type),
		}
	}
	for _, a := range n.Activities {
		e.Activities = append(e.Activities, entity.Activity{ID: a.ID, Type: a.Type, CreatedAt: a.CreatedAt})
	}
	return e
}

func (n *expenseNode) collective() *entity.Collective {
	if n.Account == nil {
		return nil
	}
	c := &entity.Collective{
		ID:       n.Account.ID,
		Slug:     n.Account.Slug,
		Currency: n.Account.Currency,
		Balance:  n.Account.Balance,
	}
	if h := n.Account.Host; h != nil {
		c.Host = &entity.Host{
			ID:   h.ID,
			Slug: h.Slug,
			Name: h.Name,
			Plan: entity.Plan{
				TransferwisePayouts:      h.Plan.TransferwisePayouts,
				TransferwisePayoutsLimit: h.Plan.TransferwisePayoutsLimit,
			},
		}
	}
	return c
}
