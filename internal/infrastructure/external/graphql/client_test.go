package graphql

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

const expenseJSON = `{
  "id": "exp-abc",
  "legacyId": 42,
  "description": "Conference travel",
  "currency": "USD",
  "status": "PAID",
  "amount": 5000,
  "payoutMethod": {"id": "pm-1", "type": "BANK_ACCOUNT"},
  "permissions": {"canApprove": false, "canUnapprove": false, "canReject": false, "canPay": false, "canMarkAsUnpaid": true},
  "activities": [{"id": "act-1", "type": "COLLECTIVE_EXPENSE_PAID", "createdAt": "2024-03-01T10:00:00Z"}],
  "account": {
    "id": "col-1", "slug": "webpack", "currency": "USD", "balance": 10000,
    "host": {"id": "host-1", "name": "Open Collective", "slug": "opencollective",
      "plan": {"transferwisePayouts": 5, "transferwisePayoutsLimit": 10}}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.Endpoint = srv.URL
	return NewClient(cfg, zap.NewNop())
}

func decodeRequest(t *testing.T, r *http.Request) request {
	t.Helper()
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var req request
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

func TestClient_ProcessExpense(t *testing.T) {
	var got request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		got = decodeRequest(t, r)
		_, _ = io.WriteString(w, `{"data": {"processExpense": `+expenseJSON+`}}`)
	}, Config{Token: "secret"})

	fee := int64(0)
	expense, collective, err := client.ProcessExpense(context.Background(), port.ProcessRequest{
		Expense:       entity.ExpenseRef{ID: "exp-abc", LegacyID: 42},
		Action:        "PAY",
		PaymentParams: &entity.PaymentParams{PaymentProcessorFee: &fee, IsManual: false},
	})
	require.NoError(t, err)

	assert.Equal(t, "processExpense", got.OperationName)
	assert.Contains(t, got.Query, "mutation processExpense")
	assert.Equal(t, "exp-abc", got.Variables["id"])
	assert.Equal(t, float64(42), got.Variables["legacyId"])
	assert.Equal(t, "PAY", got.Variables["action"])
	params, ok := got.Variables["paymentParams"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), params["paymentProcessorFee"], "zero fee is sent")
	assert.Equal(t, false, params["isManual"])

	assert.Equal(t, "exp-abc", expense.ID)
	assert.Equal(t, int64(42), expense.LegacyID)
	assert.Equal(t, "PAID", expense.Status)
	assert.Equal(t, entity.PayoutMethodBankAccount, expense.PayoutMethod.Type)
	assert.True(t, expense.Permissions.CanMarkAsUnpaid)
	assert.False(t, expense.Permissions.CanPay)
	require.Len(t, expense.Activities, 1)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), expense.Activities[0].CreatedAt.UTC())

	// the paying collective comes back with its post-payment balance and plan usage
	require.NotNil(t, collective)
	assert.Equal(t, "col-1", collective.ID)
	assert.Equal(t, int64(10000), collective.Balance)
	require.NotNil(t, collective.Host)
	assert.Equal(t, 5, collective.Host.Plan.TransferwisePayouts)
}

func TestClient_ProcessExpenseOmitsParamsForOtherActions(t *testing.T) {
	var got request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		_, _ = io.WriteString(w, `{"data": {"processExpense": `+expenseJSON+`}}`)
	}, Config{})

	_, _, err := client.ProcessExpense(context.Background(), port.ProcessRequest{
		Expense: entity.ExpenseRef{LegacyID: 42},
		Action:  "APPROVE",
	})
	require.NoError(t, err)

	_, hasParams := got.Variables["paymentParams"]
	assert.False(t, hasParams)
	assert.Nil(t, got.Variables["id"])
}

func TestClient_GraphQLError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errors": [{"message": "Collective does not have enough funds to pay this expense"}], "data": null}`)
	}, Config{})

	_, _, err := client.ProcessExpense(context.Background(), port.ProcessRequest{
		Expense: entity.ExpenseRef{ID: "exp-abc"},
		Action:  "PAY",
	})
	require.Error(t, err)

	var te *port.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Collective does not have enough funds to pay this expense", te.Message)
	assert.Equal(t, "Collective does not have enough funds to pay this expense", port.ErrorMessage(err))
}

func TestClient_FetchExpense(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		assert.Equal(t, "expense", req.OperationName)
		assert.Equal(t, float64(42), req.Variables["legacyId"])
		_, _ = io.WriteString(w, `{"data": {"expense": `+expenseJSON+`}}`)
	}, Config{})

	expense, collective, err := client.FetchExpense(context.Background(), entity.ExpenseRef{LegacyID: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), expense.Amount)

	require.NotNil(t, collective)
	assert.Equal(t, int64(10000), collective.Balance)
	require.NotNil(t, collective.Host)
	assert.Equal(t, "opencollective", collective.Host.Slug)
	assert.Equal(t, 5, collective.Host.Plan.TransferwisePayouts)
	require.NotNil(t, collective.Host.Plan.TransferwisePayoutsLimit)
	assert.Equal(t, 10, *collective.Host.Plan.TransferwisePayoutsLimit)
}

func TestClient_FetchExpenseNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"expense": null}}`)
	}, Config{})

	_, _, err := client.FetchExpense(context.Background(), entity.ExpenseRef{ID: "missing"})
	assert.ErrorIs(t, err, port.ErrExpenseNotFound)

	_, _, err = client.FetchExpense(context.Background(), entity.ExpenseRef{})
	assert.ErrorIs(t, err, port.ErrExpenseNotFound)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, Config{BreakerFailures: 2, BreakerOpenDelay: time.Minute})

	req := port.ProcessRequest{Expense: entity.ExpenseRef{ID: "exp-abc"}, Action: "APPROVE"}
	for i := 0; i < 2; i++ {
		_, _, err := client.ProcessExpense(context.Background(), req)
		assert.ErrorContains(t, err, "status 502")
	}

	_, _, err := client.ProcessExpense(context.Background(), req)
	var te *port.TransportError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Message, "temporarily unavailable")
	assert.Equal(t, int32(2), calls.Load(), "open breaker does not hit the API")
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data": {"expense": `+expenseJSON+`}}`)
	}, Config{RequestsPerSec: 0.001, Burst: 1})

	_, _, err := client.FetchExpense(context.Background(), entity.ExpenseRef{ID: "exp-abc"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = client.FetchExpense(ctx, entity.ExpenseRef{ID: "exp-abc"})
	var te *port.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "Request cancelled", te.Message)
}
