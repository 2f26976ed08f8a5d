package handler

import (
	"net/http"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/internal/middleware"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	svc service.PaymentService
}

func NewPaymentHandler(svc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// RegisterRoutes mounts the checkout endpoints. optionalAuth identifies the
// buyer when a token is present.
func (h *PaymentHandler) RegisterRoutes(api *echo.Group, optionalAuth echo.MiddlewareFunc) {
	api.POST("/create-order", h.CreateOrder)
	api.POST("/create-razorpay-order", h.CreateOrder)
	api.POST("/verify-payment", h.VerifyPayment, optionalAuth)
	api.GET("/razorpay-key", h.GetKey)
}

func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.CreateOrder(c.Request().Context(), req.ToInput())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.CreateOrderResponse{
		Success:     true,
		RazorpayKey: res.KeyID,
		Order: dto.OrderResponse{
			ID:       res.Order.ID,
			Amount:   res.Order.Amount,
			Currency: res.Order.Currency,
		},
	})
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.VerifyPayment(c.Request().Context(), req.ToInput(middleware.UserID(c)))
	if err != nil {
		return toHTTPError(err)
	}

	msg := "Payment verified successfully and consultation booked"
	if res.Replayed {
		msg = "Payment already verified, consultation booked"
	}
	return c.JSON(http.StatusOK, dto.VerifyPaymentResponse{
		Success: true,
		Message: msg,
		Consultation: dto.BookedConsultation{
			ID:              res.Consultation.ID,
			ReferenceNumber: res.ReferenceNumber,
			ScheduledDate:   res.Consultation.ScheduledDate,
			ScheduledTime:   res.Consultation.ScheduledTime,
		},
		ConsultationData: dto.ToConsultationData(res.Consultation),
	})
}

func (h *PaymentHandler) GetKey(c echo.Context) error {
	key, err := h.svc.KeyID()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, dto.KeyResponse{Success: true, Key: key})
}
