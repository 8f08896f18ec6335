// Package graphql talks to the platform GraphQL API: it loads expenses and
// sends process actions through the processExpense mutation.
package graphql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// maxResponseSize caps how much of a response body is read
const maxResponseSize = 4 << 20

// Config holds the GraphQL client configuration
type Config struct {
	Endpoint         string
	Token            string
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

// Client implements port.ExpenseProcessor and port.ExpenseSource
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a new GraphQL client. A zero rate disables limiting.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerOpenDelay <= 0 {
		cfg.BreakerOpenDelay = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}

	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "graphql",
		Timeout: cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("GraphQL circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return c
}

// ProcessExpense sends a process action and returns the updated expense and its collective
func (c *Client) ProcessExpense(ctx context.Context, req port.ProcessRequest) (*entity.Expense, *entity.Collective, error) {
	vars := refVariables(req.Expense)
	vars["action"] = req.Action
	if req.PaymentParams != nil {
		vars["paymentParams"] = req.PaymentParams
	}

	var data struct {
		ProcessExpense *expenseNode `json:"processExpense"`
	}
	if err := c.do(ctx, "processExpense", processExpenseMutation, vars, &data); err != nil {
		return nil, nil, err
	}
	if data.ProcessExpense == nil {
		return nil, nil, &port.TransportError{Message: "The API returned no expense"}
	}

	c.logger.Info("Expense processed remotely",
		zap.String("expense_id", data.ProcessExpense.ID),
		zap.String("action", req.Action),
		zap.String("status", data.ProcessExpense.Status))
	return data.ProcessExpense.toEntity(), data.ProcessExpense.collective(), nil
}

// FetchExpense loads an expense and the collective it belongs to
func (c *Client) FetchExpense(ctx context.Context, ref entity.ExpenseRef) (*entity.Expense, *entity.Collective, error) {
	if ref.IsZero() {
		return nil, nil, fmt.Errorf("%w: empty reference", port.ErrExpenseNotFound)
	}

	var data struct {
		Expense *expenseNode `json:"expense"`
	}
	if err := c.do(ctx, "expense", expenseQuery, refVariables(ref), &data); err != nil {
		return nil, nil, err
	}
	if data.Expense == nil {
		return nil, nil, port.ErrExpenseNotFound
	}
	return data.Expense.toEntity(), data.Expense.collective(), nil
}

func refVariables(ref entity.ExpenseRef) map[string]interface{} {
	vars := map[string]interface{}{"id": nil, "legacyId": nil}
	if ref.ID != "" {
		vars["id"] = ref.ID
	}
	if ref.LegacyID != 0 {
		vars["legacyId"] = ref.LegacyID
	}
	return vars
}

// do posts one operation and decodes its data into out.
// Every failure is returned as a *port.TransportError.
func (c *Client) do(ctx context.Context, operation, query string, vars map[string]interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &port.TransportError{Message: "Request cancelled", Err: err}
	}

	body, err := json.Marshal(request{Query: query, OperationName: operation, Variables: vars})
	if err != nil {
		return &port.TransportError{Message: "Failed to encode request", Err: err}
	}

	// Only transport failures count against the breaker; GraphQL errors mean the API is up.
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		var te *port.TransportError
		if errors.As(err, &te) {
			return te
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("GraphQL request rejected by circuit breaker", zap.String("operation", operation))
			return &port.TransportError{Message: "The API is temporarily unavailable, try again later", Err: err}
		}
		return &port.TransportError{Message: err.Error(), Err: err}
	}

	resp := result.(*response)
	if len(resp.Errors) > 0 {
		c.logger.Error("GraphQL operation failed",
			zap.String("operation", operation),
			zap.String("error", resp.Errors[0].Message))
		return &port.TransportError{Message: resp.Errors[0].Message}
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return &port.TransportError{Message: "The API returned no data"}
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &port.TransportError{Message: "Failed to decode response", Err: err}
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &port.TransportError{Message: "Failed to build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("GraphQL request failed", zap.Error(err))
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("API responded with status %d", httpResp.StatusCode)
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API responded with status %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("invalid response body: %w", err)
	}
	return &resp, nil
}

var (
	_ port.ExpenseProcessor = (*Client)(nil)
	_ port.ExpenseSource    = (*Client)(nil)
)
