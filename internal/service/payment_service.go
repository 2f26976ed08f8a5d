package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/payment"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCurrency = "INR"

	receiptPrefix = "rcpt_"
	// Razorpay rejects note values longer than this.
	maxNoteLength = 256
)

var tracer = otel.Tracer("github.com/Eursukkul/consultation-service/internal/service")

type CreateOrderInput struct {
	Amount           int64
	Currency         string
	ConsultationData any
}

type CreateOrderResult struct {
	KeyID string
	Order payment.Order
}

// ConsultationDetails is the booking form submitted with a payment.
type ConsultationDetails struct {
	Name             string
	Age              int
	Gender           models.Gender
	Email            string
	Phone            string
	ConsultationType models.ConsultationType
	SkinType         models.SkinType
	Concerns         string
	CurrentProducts  string
}

type VerifyPaymentInput struct {
	OrderID      string
	PaymentID    string
	Signature    string
	Consultation *ConsultationDetails
	UserID       *string
}

type VerifyPaymentResult struct {
	Consultation    *models.Consultation
	ReferenceNumber string
	// Replayed is set when the payment had already been booked.
	Replayed bool
}

// SideEffects runs the post-booking work without blocking the caller.
type SideEffects interface {
	Dispatch(ctx context.Context, c models.Consultation)
}

type PaymentService interface {
	KeyID() (string, error)
	CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error)
	VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*VerifyPaymentResult, error)
}

type paymentService struct {
	creds         payment.Credentials
	orders        payment.OrderClient
	consultations ConsultationService
	effects       SideEffects
	log           *slog.Logger
}

// NewPaymentService wires the booking pipeline. A nil effects skips the
// calendar and email fan-out.
func NewPaymentService(creds payment.Credentials, orders payment.OrderClient, consultations ConsultationService, effects SideEffects, log *slog.Logger) PaymentService {
	if log == nil {
		log = slog.Default()
	}
	return &paymentService{
		creds:         creds,
		orders:        orders,
		consultations: consultations,
		effects:       effects,
		log:           log.With("component", "payment"),
	}
}

func (s *paymentService) KeyID() (string, error) {
	if !s.creds.Configured() {
		return "", ErrGatewayNotConfigured
	}
	return s.creds.KeyID, nil
}

func (s *paymentService) CreateOrder(ctx context.Context, in CreateOrderInput) (_ *CreateOrderResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.CreateOrder")
	defer func() { endSpan(span, err) }()

	if !s.creds.Configured() || s.orders == nil {
		return nil, ErrGatewayNotConfigured
	}
	if in.Amount <= 0 {
		return nil, &ValidationError{Fields: []string{"amount"}}
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	receipt, err := newReceipt()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("payment.amount", in.Amount),
		attribute.String("payment.currency", currency),
		attribute.String("payment.receipt", receipt),
	)

	order, err := s.orders.CreateOrder(ctx, payment.OrderRequest{
		Amount:   in.Amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    map[string]string{"consultationData": consultationNote(in.ConsultationData)},
	})
	if err != nil {
		s.log.ErrorContext(ctx, "create order", "receipt", receipt, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	s.log.InfoContext(ctx, "order created", "order_id", order.ID, "amount", order.Amount, "currency", order.Currency)
	return &CreateOrderResult{KeyID: s.creds.KeyID, Order: *order}, nil
}

// newReceipt returns a time-ordered receipt token within the gateway's
// 40 character limit.
func newReceipt() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate receipt: %w", err)
	}
	return receiptPrefix + strings.ReplaceAll(id.String(), "-", ""), nil
}

func consultationNote(data any) string {
	if data == nil {
		return "{}"
	}
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(data)
	if err != nil {
		return "{}"
	}
	note := string(b)
	if r := []rune(note); len(r) > maxNoteLength {
		note = string(r[:maxNoteLength])
	}
	return note
}

func (s *paymentService) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (_ *VerifyPaymentResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.VerifyPayment", trace.WithAttributes(
		attribute.String("payment.order_id", in.OrderID),
		attribute.String("payment.payment_id", in.PaymentID),
	))
	defer func() { endSpan(span, err) }()

	if !s.creds.Configured() {
		return nil, ErrGatewayNotConfigured
	}

	var bad fieldErrors
	if in.OrderID == "" {
		bad.add("razorpay_order_id")
	}
	if in.PaymentID == "" {
		bad.add("razorpay_payment_id")
	}
	if in.Signature == "" {
		bad.add("razorpay_signature")
	}
	if in.Consultation == nil {
		bad.add("consultationData")
	}
	if err := bad.err(); err != nil {
		return nil, err
	}

	if !s.verifySignature(ctx, in) {
		s.log.WarnContext(ctx, "signature mismatch", "order_id", in.OrderID, "payment_id", in.PaymentID)
		return nil, ErrSignatureMismatch
	}

	existing, err := s.consultations.FindByPaymentID(ctx, in.PaymentID)
	switch {
	case err == nil:
		s.log.InfoContext(ctx, "payment already booked", "payment_id", in.PaymentID, "consultation_id", existing.ID)
		return replayed(existing), nil
	case !errors.Is(err, ErrConsultationNotFound):
		return nil, s.persistenceError(ctx, in, err)
	}

	c, err := s.persist(ctx, in)
	if errors.Is(err, ErrDuplicatePayment) {
		// A concurrent request booked the same payment first.
		existing, ferr := s.consultations.FindByPaymentID(ctx, in.PaymentID)
		if ferr != nil {
			return nil, s.persistenceError(ctx, in, ferr)
		}
		return replayed(existing), nil
	}
	if err != nil {
		return nil, s.persistenceError(ctx, in, err)
	}

	ref := models.ReferenceNumber(c.ID)
	span.SetAttributes(attribute.String("consultation.reference", ref))
	s.log.InfoContext(ctx, "consultation booked", "consultation_id", c.ID, "reference", ref, "payment_id", in.PaymentID)

	if s.effects != nil {
		s.effects.Dispatch(ctx, *c)
	}
	return &VerifyPaymentResult{Consultation: c, ReferenceNumber: ref}, nil
}

func (s *paymentService) verifySignature(ctx context.Context, in VerifyPaymentInput) bool {
	_, span := tracer.Start(ctx, "payment.VerifySignature")
	defer span.End()
	ok := payment.VerifySignature(in.OrderID, in.PaymentID, in.Signature, s.creds.KeySecret)
	span.SetAttributes(attribute.Bool("payment.signature_valid", ok))
	return ok
}

func (s *paymentService) persist(ctx context.Context, in VerifyPaymentInput) (_ *models.Consultation, err error) {
	ctx, span := tracer.Start(ctx, "consultation.Create")
	defer func() {
		if errors.Is(err, ErrDuplicatePayment) {
			span.End()
			return
		}
		endSpan(span, err)
	}()

	d := in.Consultation
	return s.consultations.Create(ctx, NewConsultation{
		Name:              d.Name,
		Age:               d.Age,
		Gender:            d.Gender,
		Email:             d.Email,
		Phone:             d.Phone,
		ConsultationType:  d.ConsultationType,
		SkinType:          d.SkinType,
		Concerns:          d.Concerns,
		CurrentProducts:   d.CurrentProducts,
		RazorpayOrderID:   in.OrderID,
		RazorpayPaymentID: in.PaymentID,
		Amount:            models.ConsultationFee,
		PaymentStatus:     models.PaymentCompleted,
		UserID:            in.UserID,
	})
}

func (s *paymentService) persistenceError(ctx context.Context, in VerifyPaymentInput, err error) error {
	s.log.ErrorContext(ctx, "payment verified but consultation not saved",
		"order_id", in.OrderID, "payment_id", in.PaymentID, "error", err)
	return &PersistenceError{OrderID: in.OrderID, PaymentID: in.PaymentID, Err: err}
}

func replayed(c *models.Consultation) *VerifyPaymentResult {
	return &VerifyPaymentResult{Consultation: c, ReferenceNumber: models.ReferenceNumber(c.ID), Replayed: true}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
