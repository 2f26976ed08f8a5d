package dto

import (
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/service"
)

type ConsultationResponse struct {
	ID                string                    `json:"id"`
	LegacyID          string                    `json:"_id"`
	ReferenceNumber   string                    `json:"referenceNumber"`
	Name              string                    `json:"name"`
	Age               int                       `json:"age"`
	Gender            models.Gender             `json:"gender"`
	Email             string                    `json:"email"`
	Phone             string                    `json:"phone"`
	ConsultationType  models.ConsultationType   `json:"consultationType"`
	SkinType          models.SkinType           `json:"skinType,omitempty"`
	Concerns          string                    `json:"concerns"`
	CurrentProducts   string                    `json:"currentProducts"`
	RazorpayOrderID   string                    `json:"razorpayOrderId"`
	RazorpayPaymentID string                    `json:"razorpayPaymentId"`
	Amount            int64                     `json:"amount"`
	PaymentStatus     models.PaymentStatus      `json:"paymentStatus"`
	ScheduledDate     *time.Time                `json:"scheduledDate"`
	ScheduledTime     *string                   `json:"scheduledTime"`
	Status            models.ConsultationStatus `json:"status"`
	CalendarEventID   string                    `json:"googleCalendarEventId,omitempty"`
	CalendarLink      string                    `json:"googleCalendarLink,omitempty"`
	UserID            *string                   `json:"user,omitempty"`
	ExpertNotes       string                    `json:"expertNotes"`
	AssignedExpert    string                    `json:"assignedExpert"`
	ReminderSentAt    *time.Time                `json:"reminderSentAt,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

func ToConsultationResponse(c *models.Consultation) ConsultationResponse {
	return ConsultationResponse{
		ID:                c.ID,
		LegacyID:          c.ID,
		ReferenceNumber:   models.ReferenceNumber(c.ID),
		Name:              c.Name,
		Age:               c.Age,
		Gender:            c.Gender,
		Email:             c.Email,
		Phone:             c.Phone,
		ConsultationType:  c.ConsultationType,
		SkinType:          c.SkinType,
		Concerns:          c.Concerns,
		CurrentProducts:   c.CurrentProducts,
		RazorpayOrderID:   c.RazorpayOrderID,
		RazorpayPaymentID: c.RazorpayPaymentID,
		Amount:            c.Amount,
		PaymentStatus:     c.PaymentStatus,
		ScheduledDate:     c.ScheduledDate,
		ScheduledTime:     c.ScheduledTime,
		Status:            c.Status,
		CalendarEventID:   c.CalendarEventID,
		CalendarLink:      c.CalendarLink,
		UserID:            c.UserID,
		ExpertNotes:       c.ExpertNotes,
		AssignedExpert:    c.AssignedExpert,
		ReminderSentAt:    c.ReminderSentAt,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// ToConsultationData renders the stored booking form of c.
func ToConsultationData(c *models.Consultation) *ConsultationData {
	return &ConsultationData{
		Name:             c.Name,
		Age:              FlexInt(c.Age),
		Gender:           string(c.Gender),
		Email:            c.Email,
		Phone:            c.Phone,
		ConsultationType: string(c.ConsultationType),
		SkinType:         string(c.SkinType),
		Concerns:         c.Concerns,
		CurrentProducts:  c.CurrentProducts,
	}
}

func ToConsultationResponses(cs []models.Consultation) []ConsultationResponse {
	out := make([]ConsultationResponse, len(cs))
	for i := range cs {
		out[i] = ToConsultationResponse(&cs[i])
	}
	return out
}

type ConsultationEnvelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Data    ConsultationResponse `json:"data"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type ConsultationListResponse struct {
	Success    bool                   `json:"success"`
	Data       []ConsultationResponse `json:"data"`
	Pagination Pagination             `json:"pagination"`
}

type StatsResponse struct {
	Success bool          `json:"success"`
	Data    service.Stats `json:"data"`
}

type OrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CreateOrderResponse struct {
	Success     bool          `json:"success"`
	RazorpayKey string        `json:"razorpayKey"`
	Order       OrderResponse `json:"order"`
}

type BookedConsultation struct {
	ID              string     `json:"id"`
	ReferenceNumber string     `json:"referenceNumber"`
	ScheduledDate   *time.Time `json:"scheduledDate"`
	ScheduledTime   *string    `json:"scheduledTime"`
}

type VerifyPaymentResponse struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message"`
	Consultation     BookedConsultation `json:"consultation"`
	ConsultationData *ConsultationData  `json:"consultationData,omitempty"`
}

type KeyResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

type ErrorResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Fields    []string `json:"fields,omitempty"`
	OrderID   string   `json:"orderId,omitempty"`
	PaymentID string   `json:"paymentId,omitempty"`
}
