package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-desk/internal/application/service"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	expenses service.ExpenseService
	health   HealthChecker
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(expenses service.ExpenseService, health HealthChecker, logger Logger) *Handlers {
	return &Handlers{
		expenses: expenses,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// FeeInput accepts the processor fee as a JSON number, a string or null
type FeeInput string

// UnmarshalJSON implements json.Unmarshaler
func (f *FeeInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FeeInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("processor_fee must be a number or a string")
	}
	*f = FeeInput(n.String())
	return nil
}

// QuoteRequest is the body of POST /api/expenses/:id/pay/quote
type QuoteRequest struct {
	ProcessorFee FeeInput `json:"processor_fee"`
}

// ListRequest represents pagination query parameters
type ListRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.health != nil {
		if err := h.health.Check(c.Request.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response, Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// GetActions handles GET /api/expenses/:id/actions
func (h *Handlers) GetActions(c *gin.Context) {
	view, err := h.expenses.Actions(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get expense actions", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// Refresh handles POST /api/expenses/:id/refresh
func (h *Handlers) Refresh(c *gin.Context) {
	view, err := h.expenses.Reload(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to refresh expense", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: view})
}

// QuotePayment handles POST /api/expenses/:id/pay/quote
func (h *Handlers) QuotePayment(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid quote request", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	confirmation, err := h.expenses.QuotePayment(c.Request.Context(), c.Param("id"), string(req.ProcessorFee))
	if err != nil {
		resp := errorBody(err)
		// an invalid fee still returns the confirmation so the field can show its state
		if statusFor(err) == http.StatusUnprocessableEntity {
			resp.Data = confirmation
		}
		h.logger.Error("Failed to quote payment", "id", c.Param("id"), "error", err)
		c.JSON(statusFor(err), resp)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: confirmation})
}

// Process handles POST /api/expenses/:id/process
func (h *Handlers) Process(c *gin.Context) {
	var req service.ProcessInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid process request", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	result, err := h.expenses.Process(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, "Failed to process expense", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// History handles GET /api/expenses/:id/history
func (h *Handlers) History(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	entries, err := h.expenses.History(c.Request.Context(), c.Param("id"), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, "Failed to list action history", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// Summary handles GET /api/expenses/:id/history/summary
func (h *Handlers) Summary(c *gin.Context) {
	summary, err := h.expenses.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get action summary", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// ExportHistory handles GET /api/expenses/:id/history/export
func (h *Handlers) ExportHistory(c *gin.Context) {
	id := c.Param("id")

	var buf bytes.Buffer
	info, err := h.expenses.ExportHistory(c.Request.Context(), id, &buf)
	if err != nil {
		h.fail(c, "Failed to export action history", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(info.FileName))
	c.Data(http.StatusOK, info.ContentType, buf.Bytes())
}

func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	h.logger.Error(msg, "id", c.Param("id"), "status", status, "error", err)
	c.JSON(status, errorBody(err))
}
