package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

type ConsultationStatus string

const (
	StatusPending   ConsultationStatus = "pending"
	StatusScheduled ConsultationStatus = "scheduled"
	StatusCompleted ConsultationStatus = "completed"
	StatusCancelled ConsultationStatus = "cancelled"
)

func (s ConsultationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type ConsultationType string

const (
	TypeSkin ConsultationType = "skin"
	TypeHair ConsultationType = "hair"
)

func (t ConsultationType) Valid() bool {
	return t == TypeSkin || t == TypeHair
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

type SkinType string

const (
	SkinDry         SkinType = "dry"
	SkinOily        SkinType = "oily"
	SkinCombination SkinType = "combination"
	SkinNormal      SkinType = "normal"
	SkinSensitive   SkinType = "sensitive"
)

func (s SkinType) Valid() bool {
	switch s {
	case SkinDry, SkinOily, SkinCombination, SkinNormal, SkinSensitive:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentCompleted || p == PaymentFailed
}

// ConsultationFee is the price of one consultation in paise (INR 299).
const ConsultationFee int64 = 29900

const (
	ReferencePrefix = "CONS-"
	// referenceLength is the number of identity characters carried by a reference number.
	referenceLength = 8
)

type Consultation struct {
	ID               string           `gorm:"primaryKey;type:varchar(24)" json:"id"`
	ReferenceNumber  string           `gorm:"type:varchar(13);not null;uniqueIndex" json:"-"`
	Name             string           `gorm:"not null" json:"name"`
	Age              int              `gorm:"not null" json:"age"`
	Gender           Gender           `gorm:"type:varchar(10);not null" json:"gender"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	ConsultationType ConsultationType `gorm:"type:varchar(10);not null;index" json:"consultationType"`
	SkinType         SkinType         `gorm:"type:varchar(20)" json:"skinType,omitempty"`
	Concerns         string           `gorm:"not null;default:''" json:"concerns"`
	CurrentProducts  string           `gorm:"not null;default:''" json:"currentProducts"`

	RazorpayOrderID   string        `gorm:"not null;index" json:"razorpayOrderId"`
	RazorpayPaymentID string        `gorm:"not null;uniqueIndex" json:"razorpayPaymentId"`
	Amount            int64         `gorm:"not null" json:"amount"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);not null;default:'completed'" json:"paymentStatus"`

	ScheduledDate *time.Time         `json:"scheduledDate"`
	ScheduledTime *string            `json:"scheduledTime"`
	Status        ConsultationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`

	CalendarEventID string `json:"calendarEventId,omitempty"`
	CalendarLink    string `json:"calendarLink,omitempty"`

	UserID *string `gorm:"index" json:"userId,omitempty"`

	ExpertNotes    string `gorm:"not null;default:''" json:"expertNotes"`
	AssignedExpert string `gorm:"not null;default:''" json:"assignedExpert"`

	ReminderSentAt *time.Time `json:"reminderSentAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewConsultationID returns a 24 lowercase hex character identity built from
// 12 random bytes. The first 8 characters double as the reference code.
func NewConsultationID() (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate consultation id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// ReferenceNumber derives the customer-facing reference, e.g. CONS-60C72B2F.
func ReferenceNumber(id string) string {
	if len(id) < referenceLength {
		return ReferencePrefix + strings.ToUpper(id)
	}
	return ReferencePrefix + strings.ToUpper(id[:referenceLength])
}

// ParseReferenceNumber normalizes a reference and reports whether it has the
// CONS-XXXXXXXX shape with eight hex characters.
func ParseReferenceNumber(ref string) (string, bool) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !strings.HasPrefix(ref, ReferencePrefix) {
		return "", false
	}
	code := strings.TrimPrefix(ref, ReferencePrefix)
	if len(code) != referenceLength {
		return "", false
	}
	if _, err := hex.DecodeString(code); err != nil {
		return "", false
	}
	return ReferencePrefix + code, true
}
