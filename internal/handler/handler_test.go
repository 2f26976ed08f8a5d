package handler

import (
	"context"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/service"
)

// --- Mock PaymentService ---

type mockPaymentService struct {
	keyFn    func() (string, error)
	createFn func(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error)
	verifyFn func(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error)
}

func (m *mockPaymentService) KeyID() (string, error) { return m.keyFn() }
func (m *mockPaymentService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*service.CreateOrderResult, error) {
	return m.createFn(ctx, in)
}
func (m *mockPaymentService) VerifyPayment(ctx context.Context, in service.VerifyPaymentInput) (*service.VerifyPaymentResult, error) {
	return m.verifyFn(ctx, in)
}

// --- Mock ConsultationService ---

type mockConsultationService struct {
	getFn    func(ctx context.Context, id string) (*models.Consultation, error)
	getRefFn func(ctx context.Context, ref string) (*models.Consultation, error)
	listFn   func(ctx context.Context, filter service.ListFilter) ([]models.Consultation, int64, error)
	updateFn func(ctx context.Context, id string, patch service.UpdatePatch) (*models.Consultation, error)
	statsFn  func(ctx context.Context) (*service.Stats, error)
}

func (m *mockConsultationService) Create(ctx context.Context, in service.NewConsultation) (*models.Consultation, error) {
	return nil, nil
}
func (m *mockConsultationService) Get(ctx context.Context, id string) (*models.Consultation, error) {
	return m.getFn(ctx, id)
}
func (m *mockConsultationService) GetByReference(ctx context.Context, ref string) (*models.Consultation, error) {
	return m.getRefFn(ctx, ref)
}
func (m *mockConsultationService) FindByPaymentID(ctx context.Context, paymentID string) (*models.Consultation, error) {
	return nil, service.ErrConsultationNotFound
}
func (m *mockConsultationService) List(ctx context.Context, filter service.ListFilter) ([]models.Consultation, int64, error) {
	return m.listFn(ctx, filter)
}
func (m *mockConsultationService) Update(ctx context.Context, id string, patch service.UpdatePatch) (*models.Consultation, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *mockConsultationService) Stats(ctx context.Context) (*service.Stats, error) {
	return m.statsFn(ctx)
}
func (m *mockConsultationService) RecordCalendarEvent(ctx context.Context, id, eventID, link string) error {
	return nil
}
func (m *mockConsultationService) DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]models.Consultation, error) {
	return nil, nil
}
func (m *mockConsultationService) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	return nil
}

func sampleConsultation() *models.Consultation {
	date := time.Date(2026, 4, 1, 4, 30, 0, 0, time.UTC)
	slot := "10:00 AM"
	return &models.Consultation{
		ID:                "60c72b2f9b1e8a3f4c8b4567",
		Name:              "Asha",
		Age:               29,
		Gender:            models.GenderFemale,
		ConsultationType:  models.TypeSkin,
		SkinType:          models.SkinOily,
		RazorpayOrderID:   "order_1",
		RazorpayPaymentID: "pay_1",
		Amount:            models.ConsultationFee,
		PaymentStatus:     models.PaymentCompleted,
		ScheduledDate:     &date,
		ScheduledTime:     &slot,
		Status:            models.StatusScheduled,
		CreatedAt:         time.Now(),
	}
}
