package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/labstack/echo/v4"
)

const persistenceFailedMessage = "Payment verified but failed to save consultation. Please contact support."

// toHTTPError maps service errors onto the response codes clients rely on.
func toHTTPError(err error) error {
	var (
		verr *service.ValidationError
		perr *service.PersistenceError
	)

	switch {
	case errors.As(err, &perr):
		// The payment is captured either way, so this is always a server error.
		body := dto.ErrorResponse{Message: persistenceFailedMessage, OrderID: perr.OrderID, PaymentID: perr.PaymentID}
		if errors.As(perr.Err, &verr) {
			body.Fields = verr.Fields
		}
		return echo.NewHTTPError(http.StatusInternalServerError, body).SetInternal(err)
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{Message: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, service.ErrSignatureMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, "Payment verification failed")
	case errors.Is(err, service.ErrGatewayNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, "Payment gateway is not configured")
	case errors.Is(err, service.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "Error creating payment order").SetInternal(err)
	case errors.Is(err, service.ErrConsultationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Consultation not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
}
