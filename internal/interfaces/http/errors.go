package http

import (
	"errors"
	"net/http"

	"github.com/garyjia/expense-desk/internal/application/dispatcher"
	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/domain/payment"
	"github.com/garyjia/expense-desk/internal/domain/workflow"
)

// statusFor maps application errors to HTTP status codes
func statusFor(err error) int {
	var te *port.TransportError
	switch {
	case errors.Is(err, service.ErrInvalidExpenseID), errors.Is(err, workflow.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, port.ErrExpenseNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrActionInFlight):
		return http.StatusConflict
	case errors.Is(err, dispatcher.ErrPaymentBlocked), errors.Is(err, payment.ErrInvalidFee):
		return http.StatusUnprocessableEntity
	case errors.As(err, &te):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the response for a failed request. Server errors hide their cause.
func errorBody(err error) Response {
	resp := Response{Success: false, Error: port.ErrorMessage(err)}

	var blocked *dispatcher.PaymentBlockedError
	if errors.As(err, &blocked) {
		resp.Error = blocked.Reason.Message
		resp.Data = dispatcher.NewReasonView(blocked.Reason)
	}
	if statusFor(err) == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	return resp
}
