package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/internal/middleware"
	"github.com/Eursukkul/consultation-service/internal/payment"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateOrder_Handler_Success(t *testing.T) {
	var got service.CreateOrderInput
	svc := &mockPaymentService{
		createFn: func(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error) {
			got = in
			return &service.CreateOrderResult{
				KeyID: "rzp_test_key",
				Order: payment.Order{ID: "order_1", Amount: in.Amount, Currency: "INR"},
			}, nil
		},
	}

	e := echo.New()
	c, rec := postJSON(e, "/api/create-order", `{"amount":29900,"consultationData":{"name":"Asha"}}`)

	h := NewPaymentHandler(svc)
	err := h.CreateOrder(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(29900), got.Amount)
	assert.NotNil(t, got.ConsultationData)

	var resp dto.CreateOrderResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "rzp_test_key", resp.RazorpayKey)
	assert.Equal(t, dto.OrderResponse{ID: "order_1", Amount: 29900, Currency: "INR"}, resp.Order)
}

func TestCreateOrder_Handler_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not configured", service.ErrGatewayNotConfigured, http.StatusInternalServerError},
		{"missing amount", &service.ValidationError{Fields: []string{"amount"}}, http.StatusBadRequest},
		{"gateway down", errors.Join(service.ErrGatewayUnavailable, payment.ErrTimeout), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockPaymentService{
				createFn: func(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error) {
					return nil, tc.err
				},
			}
			c, _ := postJSON(echo.New(), "/api/create-order", `{"amount":29900}`)

			err := NewPaymentHandler(svc).CreateOrder(c)

			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tc.code, he.Code)
		})
	}
}

func TestVerifyPayment_Handler_Success(t *testing.T) {
	cons := sampleConsultation()
	var got service.VerifyPaymentInput
	svc := &mockPaymentService{
		verifyFn: func(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error) {
			got = in
			return &service.VerifyPaymentResult{Consultation: cons, ReferenceNumber: "CONS-60C72B2F"}, nil
		},
	}

	e := echo.New()
	body := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig",
		"consultationData":{"name":"Asha","age":"29","gender":"female","consultationType":"skin","skinType":"oily"}}`
	c, rec := postJSON(e, "/api/verify-payment", body)
	c.Set("user_id", "user-7")

	err := NewPaymentHandler(svc).VerifyPayment(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Consultation)
	assert.Equal(t, 29, got.Consultation.Age)
	require.NotNil(t, got.UserID)
	assert.Equal(t, "user-7", *got.UserID)

	var resp dto.VerifyPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "CONS-60C72B2F", resp.Consultation.ReferenceNumber)
	assert.Equal(t, cons.ID, resp.Consultation.ID)
	assert.Equal(t, "10:00 AM", *resp.Consultation.ScheduledTime)
}

func TestVerifyPayment_Handler_ReplayEchoesStoredBooking(t *testing.T) {
	cons := sampleConsultation()
	svc := &mockPaymentService{
		verifyFn: func(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error) {
			return &service.VerifyPaymentResult{Consultation: cons, ReferenceNumber: "CONS-60C72B2F", Replayed: true}, nil
		},
	}

	e := echo.New()
	body := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig",
		"consultationData":{"name":"Someone Else","age":"40","skinType":""}}`
	c, rec := postJSON(e, "/api/verify-payment", body)

	require.NoError(t, NewPaymentHandler(svc).VerifyPayment(c))

	var resp dto.VerifyPaymentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Payment already verified, consultation booked", resp.Message)
	require.NotNil(t, resp.ConsultationData)
	assert.Equal(t, "Asha", resp.ConsultationData.Name)
	assert.Equal(t, dto.FlexInt(29), resp.ConsultationData.Age)
	assert.Equal(t, "oily", resp.ConsultationData.SkinType)
}

func TestVerifyPayment_Handler_SignatureMismatch(t *testing.T) {
	svc := &mockPaymentService{
		verifyFn: func(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error) {
			return nil, service.ErrSignatureMismatch
		},
	}

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	c, rec := postJSON(e, "/api/verify-payment", `{"razorpay_order_id":"o","razorpay_payment_id":"p","razorpay_signature":"bad"}`)

	err := NewPaymentHandler(svc).VerifyPayment(c)
	e.HTTPErrorHandler(err, c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Payment verification failed", resp.Message)
}

func TestVerifyPayment_Handler_PersistenceFailure(t *testing.T) {
	svc := &mockPaymentService{
		verifyFn: func(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error) {
			return nil, &service.PersistenceError{OrderID: "order_1", PaymentID: "pay_1", Err: errors.New("db down")}
		},
	}

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	c, rec := postJSON(e, "/api/verify-payment", `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"s","consultationData":{}}`)

	err := NewPaymentHandler(svc).VerifyPayment(c)
	e.HTTPErrorHandler(err, c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Payment verified but failed to save consultation. Please contact support.", resp.Message)
	assert.Equal(t, "order_1", resp.OrderID)
	assert.Equal(t, "pay_1", resp.PaymentID)
}

func TestVerifyPayment_Handler_InvalidConsultationData(t *testing.T) {
	svc := &mockPaymentService{
		verifyFn: func(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error) {
			return nil, &service.PersistenceError{OrderID: "o", PaymentID: "p", Err: &service.ValidationError{Fields: []string{"age"}}}
		},
	}
	c, _ := postJSON(echo.New(), "/api/verify-payment", `{}`)

	err := NewPaymentHandler(svc).VerifyPayment(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	body, ok := he.Message.(dto.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, []string{"age"}, body.Fields)
	assert.Equal(t, "o", body.OrderID)
	assert.Equal(t, "p", body.PaymentID)
}

func TestVerifyPayment_Handler_InvalidBody(t *testing.T) {
	c, _ := postJSON(echo.New(), "/api/verify-payment", `{"razorpay_order_id":`)

	err := NewPaymentHandler(&mockPaymentService{}).VerifyPayment(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetKey_Handler(t *testing.T) {
	svc := &mockPaymentService{keyFn: func() (string, error) { return "rzp_test_key", nil }}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/razorpay-key", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, NewPaymentHandler(svc).GetKey(c))

	assert.JSONEq(t, `{"success":true,"key":"rzp_test_key"}`, rec.Body.String())
}
