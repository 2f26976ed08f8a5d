package dto

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/service"
)

type CreateOrderRequest struct {
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	ConsultationData map[string]any `json:"consultationData"`
}

func (r CreateOrderRequest) ToInput() service.CreateOrderInput {
	in := service.CreateOrderInput{Amount: r.Amount, Currency: r.Currency}
	if r.ConsultationData != nil {
		in.ConsultationData = r.ConsultationData
	}
	return in
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string            `json:"razorpay_order_id"`
	RazorpayPaymentID string            `json:"razorpay_payment_id"`
	RazorpaySignature string            `json:"razorpay_signature"`
	ConsultationData  *ConsultationData `json:"consultationData"`
}

func (r VerifyPaymentRequest) ToInput(userID *string) service.VerifyPaymentInput {
	in := service.VerifyPaymentInput{
		OrderID:   r.RazorpayOrderID,
		PaymentID: r.RazorpayPaymentID,
		Signature: r.RazorpaySignature,
		UserID:    userID,
	}
	if r.ConsultationData != nil {
		d := r.ConsultationData.ToDetails()
		in.Consultation = &d
	}
	return in
}

type ConsultationData struct {
	Name             string  `json:"name"`
	Age              FlexInt `json:"age"`
	Gender           string  `json:"gender"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	ConsultationType string  `json:"consultationType"`
	SkinType         string  `json:"skinType"`
	Concerns         string  `json:"concerns"`
	CurrentProducts  string  `json:"currentProducts"`
}

func (d ConsultationData) ToDetails() service.ConsultationDetails {
	return service.ConsultationDetails{
		Name:             d.Name,
		Age:              int(d.Age),
		Gender:           models.Gender(strings.ToLower(strings.TrimSpace(d.Gender))),
		Email:            d.Email,
		Phone:            d.Phone,
		ConsultationType: models.ConsultationType(strings.ToLower(strings.TrimSpace(d.ConsultationType))),
		SkinType:         models.SkinType(strings.ToLower(strings.TrimSpace(d.SkinType))),
		Concerns:         d.Concerns,
		CurrentProducts:  d.CurrentProducts,
	}
}

// FlexInt accepts a JSON number or a numeric string. Form inputs post
// numbers as strings. Anything unparsable decodes to 0 and fails validation.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int(v)) {
		*f = FlexInt(int(v))
		return nil
	}
	*f = 0
	return nil
}

type UpdateConsultationRequest struct {
	Status         *string `json:"status"`
	ExpertNotes    *string `json:"expertNotes"`
	AssignedExpert *string `json:"assignedExpert"`
	ScheduledDate  *string `json:"scheduledDate"`
	ScheduledTime  *string `json:"scheduledTime"`
}

// ToPatch converts the request, resolving date-only values in loc. Empty
// status, date and time values are ignored.
func (r UpdateConsultationRequest) ToPatch(loc *time.Location) (service.UpdatePatch, error) {
	var p service.UpdatePatch
	if r.Status != nil && strings.TrimSpace(*r.Status) != "" {
		st := models.ConsultationStatus(strings.ToLower(strings.TrimSpace(*r.Status)))
		p.Status = &st
	}
	p.ExpertNotes = r.ExpertNotes
	p.AssignedExpert = r.AssignedExpert
	if r.ScheduledTime != nil && strings.TrimSpace(*r.ScheduledTime) != "" {
		t := strings.TrimSpace(*r.ScheduledTime)
		p.ScheduledTime = &t
	}
	if r.ScheduledDate != nil && strings.TrimSpace(*r.ScheduledDate) != "" {
		d, err := parseScheduledDate(strings.TrimSpace(*r.ScheduledDate), p.ScheduledTime, loc)
		if err != nil {
			return service.UpdatePatch{}, &service.ValidationError{Fields: []string{"scheduledDate"}}
		}
		p.ScheduledDate = &d
	}
	return p, nil
}

const slotLayout = "3:04 PM"

func parseScheduledDate(s string, slot *string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse scheduled date %q: %w", s, err)
	}

	hour, minute := models.DefaultScheduleHour, 0
	if slot != nil {
		if t, err := time.Parse(slotLayout, strings.ToUpper(*slot)); err == nil {
			hour, minute = t.Hour(), t.Minute()
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}
