package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/repository"
	"gorm.io/gorm"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps the row offset far from int overflow.
	MaxPage = 1_000_000

	maxCreateAttempts = 3
	maxAge            = 120
)

// NewConsultation is the data needed to store a paid consultation.
type NewConsultation struct {
	Name             string
	Age              int
	Gender           models.Gender
	Email            string
	Phone            string
	ConsultationType models.ConsultationType
	SkinType         models.SkinType
	Concerns         string
	CurrentProducts  string

	RazorpayOrderID   string
	RazorpayPaymentID string
	Amount            int64
	PaymentStatus     models.PaymentStatus

	ScheduledDate *time.Time
	ScheduledTime *string
	UserID        *string
}

type ListFilter struct {
	Status           *models.ConsultationStatus
	ConsultationType *models.ConsultationType
	Page             int
	Limit            int
}

// UpdatePatch holds the admin-editable fields. Nil fields are left unchanged.
type UpdatePatch struct {
	Status         *models.ConsultationStatus
	ExpertNotes    *string
	AssignedExpert *string
	ScheduledDate  *time.Time
	ScheduledTime  *string
}

func (p UpdatePatch) empty() bool {
	return p.Status == nil && p.ExpertNotes == nil && p.AssignedExpert == nil &&
		p.ScheduledDate == nil && p.ScheduledTime == nil
}

type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Scheduled int64 `json:"scheduled"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

type TypeCounts struct {
	Skin int64 `json:"skin"`
	Hair int64 `json:"hair"`
}

type Stats struct {
	Total    int64        `json:"total"`
	ByStatus StatusCounts `json:"byStatus"`
	ByType   TypeCounts   `json:"byType"`
}

// ScheduleNotifier is told about admin changes that affect the calendar.
type ScheduleNotifier interface {
	Rescheduled(ctx context.Context, c models.Consultation)
	Cancelled(ctx context.Context, c models.Consultation)
}

type ConsultationService interface {
	Create(ctx context.Context, in NewConsultation) (*models.Consultation, error)
	Get(ctx context.Context, id string) (*models.Consultation, error)
	GetByReference(ctx context.Context, ref string) (*models.Consultation, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Consultation, error)
	List(ctx context.Context, filter ListFilter) ([]models.Consultation, int64, error)
	Update(ctx context.Context, id string, patch UpdatePatch) (*models.Consultation, error)
	Stats(ctx context.Context) (*Stats, error)
	RecordCalendarEvent(ctx context.Context, id, eventID, link string) error
	DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]models.Consultation, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

type consultationService struct {
	repo     repository.ConsultationRepository
	loc      *time.Location
	notifier ScheduleNotifier
	now      func() time.Time
	newID    func() (string, error)
}

// NewConsultationService returns a service scheduling bookings in loc. A nil
// notifier skips calendar follow-ups on admin updates.
func NewConsultationService(repo repository.ConsultationRepository, loc *time.Location, notifier ScheduleNotifier) ConsultationService {
	if loc == nil {
		loc = time.Local
	}
	return &consultationService{
		repo:     repo,
		loc:      loc,
		notifier: notifier,
		now:      time.Now,
		newID:    models.NewConsultationID,
	}
}

func (s *consultationService) Create(ctx context.Context, in NewConsultation) (*models.Consultation, error) {
	c, err := buildConsultation(in)
	if err != nil {
		return nil, err
	}

	c = models.ApplyDefaultSchedule(c, s.now(), s.loc)
	if c.ScheduledDate != nil {
		utc := c.ScheduledDate.UTC()
		c.ScheduledDate = &utc
	}

	for attempt := 1; ; attempt++ {
		id, err := s.newID()
		if err != nil {
			return nil, err
		}
		c.ID = id
		c.ReferenceNumber = models.ReferenceNumber(id)

		err = s.repo.Create(ctx, &c)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create consultation: %w", err)
		}

		// Either the payment id or the reference number is taken.
		if _, ferr := s.repo.FindByPaymentID(ctx, c.RazorpayPaymentID); ferr == nil {
			return nil, ErrDuplicatePayment
		}
		if attempt == maxCreateAttempts {
			return nil, fmt.Errorf("create consultation: reference number taken after %d attempts: %w", attempt, err)
		}
	}
}

func buildConsultation(in NewConsultation) (models.Consultation, error) {
	var bad fieldErrors

	name := strings.TrimSpace(in.Name)
	if name == "" {
		bad.add("name")
	}
	if in.Age < 1 || in.Age > maxAge {
		bad.add("age")
	}
	if !in.Gender.Valid() {
		bad.add("gender")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			bad.add("email")
		}
	}
	if !in.ConsultationType.Valid() {
		bad.add("consultationType")
	}
	skinType := in.SkinType
	if in.ConsultationType != models.TypeSkin {
		skinType = ""
	}
	if skinType != "" && !skinType.Valid() {
		bad.add("skinType")
	}
	if strings.TrimSpace(in.RazorpayOrderID) == "" {
		bad.add("razorpayOrderId")
	}
	if strings.TrimSpace(in.RazorpayPaymentID) == "" {
		bad.add("razorpayPaymentId")
	}
	if in.Amount <= 0 {
		bad.add("amount")
	}
	paymentStatus := in.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentCompleted
	}
	if !paymentStatus.Valid() {
		bad.add("paymentStatus")
	}
	if in.ScheduledTime != nil && strings.TrimSpace(*in.ScheduledTime) == "" {
		bad.add("scheduledTime")
	}
	if err := bad.err(); err != nil {
		return models.Consultation{}, err
	}

	return models.Consultation{
		Name:              name,
		Age:               in.Age,
		Gender:            in.Gender,
		Email:             email,
		Phone:             strings.TrimSpace(in.Phone),
		ConsultationType:  in.ConsultationType,
		SkinType:          skinType,
		Concerns:          in.Concerns,
		CurrentProducts:   in.CurrentProducts,
		RazorpayOrderID:   in.RazorpayOrderID,
		RazorpayPaymentID: in.RazorpayPaymentID,
		Amount:            in.Amount,
		PaymentStatus:     paymentStatus,
		ScheduledDate:     in.ScheduledDate,
		ScheduledTime:     in.ScheduledTime,
		Status:            models.StatusPending,
		UserID:            in.UserID,
	}, nil
}

func (s *consultationService) Get(ctx context.Context, id string) (*models.Consultation, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// GetByReference resolves a CONS-XXXXXXXX reference, case-insensitively.
func (s *consultationService) GetByReference(ctx context.Context, ref string) (*models.Consultation, error) {
	normalized, ok := models.ParseReferenceNumber(ref)
	if !ok {
		return nil, ErrConsultationNotFound
	}
	c, err := s.repo.FindByReference(ctx, normalized)
	if err != nil {
		return nil, notFound(err)
	}
	if models.ReferenceNumber(c.ID) != normalized {
		return nil, ErrConsultationNotFound
	}
	return c, nil
}

func (s *consultationService) FindByPaymentID(ctx context.Context, paymentID string) (*models.Consultation, error) {
	c, err := s.repo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *consultationService) List(ctx context.Context, filter ListFilter) ([]models.Consultation, int64, error) {
	page, limit := NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, repository.ConsultationFilter{
		Status:           filter.Status,
		ConsultationType: filter.ConsultationType,
	}, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	return items, total, nil
}

// NormalizePage applies the default page and limit and caps both.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Pages returns how many pages of limit items hold total items.
func Pages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

func (s *consultationService) Update(ctx context.Context, id string, patch UpdatePatch) (*models.Consultation, error) {
	var bad fieldErrors
	if patch.Status != nil && !patch.Status.Valid() {
		bad.add("status")
	}
	if patch.ScheduledTime != nil && strings.TrimSpace(*patch.ScheduledTime) == "" {
		bad.add("scheduledTime")
	}
	if patch.ScheduledDate != nil && patch.ScheduledDate.IsZero() {
		bad.add("scheduledDate")
	}
	if err := bad.err(); err != nil {
		return nil, err
	}

	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.empty() {
		return before, nil
	}

	fields := map[string]any{"updated_at": s.now()}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.ExpertNotes != nil {
		fields["expert_notes"] = *patch.ExpertNotes
	}
	if patch.AssignedExpert != nil {
		fields["assigned_expert"] = *patch.AssignedExpert
	}
	if patch.ScheduledDate != nil {
		fields["scheduled_date"] = patch.ScheduledDate.UTC()
	}
	if patch.ScheduledTime != nil {
		fields["scheduled_time"] = strings.TrimSpace(*patch.ScheduledTime)
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConsultationNotFound
		}
		return nil, fmt.Errorf("update consultation %s: %w", id, err)
	}

	after, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, before, after, patch)
	return after, nil
}

func (s *consultationService) notify(ctx context.Context, before, after *models.Consultation, patch UpdatePatch) {
	if s.notifier == nil || after.CalendarEventID == "" {
		return
	}
	if after.Status == models.StatusCancelled {
		if before.Status != models.StatusCancelled {
			s.notifier.Cancelled(ctx, *after)
		}
		return
	}
	if patch.ScheduledDate != nil || patch.ScheduledTime != nil {
		s.notifier.Rescheduled(ctx, *after)
	}
}

func (s *consultationService) Stats(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.Total, err = s.repo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count consultations: %w", err)
	}

	byStatus := map[models.ConsultationStatus]*int64{
		models.StatusPending:   &st.ByStatus.Pending,
		models.StatusScheduled: &st.ByStatus.Scheduled,
		models.StatusCompleted: &st.ByStatus.Completed,
		models.StatusCancelled: &st.ByStatus.Cancelled,
	}
	for status, dst := range byStatus {
		if *dst, err = s.repo.CountByStatus(ctx, status); err != nil {
			return nil, fmt.Errorf("count %s consultations: %w", status, err)
		}
	}

	if st.ByType.Skin, err = s.repo.CountByType(ctx, models.TypeSkin); err != nil {
		return nil, fmt.Errorf("count skin consultations: %w", err)
	}
	if st.ByType.Hair, err = s.repo.CountByType(ctx, models.TypeHair); err != nil {
		return nil, fmt.Errorf("count hair consultations: %w", err)
	}
	return &st, nil
}

// RecordCalendarEvent stores the calendar event created for a booking. Only
// the calendar columns are written.
func (s *consultationService) RecordCalendarEvent(ctx context.Context, id, eventID, link string) error {
	err := s.repo.UpdateFields(ctx, id, map[string]any{
		"calendar_event_id": eventID,
		"calendar_link":     link,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConsultationNotFound
	}
	if err != nil {
		return fmt.Errorf("record calendar event for %s: %w", id, err)
	}
	return nil
}

// DueReminders returns scheduled bookings starting within window of now that
// have not been reminded.
func (s *consultationService) DueReminders(ctx context.Context, now time.Time, window time.Duration) ([]models.Consultation, error) {
	out, err := s.repo.FindDueReminders(ctx, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("find due reminders: %w", err)
	}
	return out, nil
}

func (s *consultationService) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	err := s.repo.UpdateFields(ctx, id, map[string]any{"reminder_sent_at": at.UTC()})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConsultationNotFound
	}
	if err != nil {
		return fmt.Errorf("mark reminder sent for %s: %w", id, err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrConsultationNotFound
	}
	return err
}
