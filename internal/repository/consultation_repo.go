package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/consultation-service/internal/models"
	"gorm.io/gorm"
)

type ConsultationFilter struct {
	Status           *models.ConsultationStatus
	ConsultationType *models.ConsultationType
}

type ConsultationRepository interface {
	Create(ctx context.Context, c *models.Consultation) error
	FindByID(ctx context.Context, id string) (*models.Consultation, error)
	FindByReference(ctx context.Context, ref string) (*models.Consultation, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Consultation, error)
	List(ctx context.Context, filter ConsultationFilter, offset, limit int) ([]models.Consultation, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.ConsultationStatus) (int64, error)
	CountByType(ctx context.Context, t models.ConsultationType) (int64, error)
	FindDueReminders(ctx context.Context, from, to time.Time) ([]models.Consultation, error)
}

type consultationRepository struct {
	db *gorm.DB
}

func NewConsultationRepository(db *gorm.DB) ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Create(ctx context.Context, c *models.Consultation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *consultationRepository) FindByID(ctx context.Context, id string) (*models.Consultation, error) {
	var c models.Consultation
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *consultationRepository) FindByReference(ctx context.Context, ref string) (*models.Consultation, error) {
	var c models.Consultation
	if err := r.db.WithContext(ctx).First(&c, "reference_number = ?", ref).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *consultationRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Consultation, error) {
	var c models.Consultation
	if err := r.db.WithContext(ctx).First(&c, "razorpay_payment_id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns one page of consultations, newest first, plus the total count
// matching the filter.
func (r *consultationRepository) List(ctx context.Context, filter ConsultationFilter, offset, limit int) ([]models.Consultation, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Consultation{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.ConsultationType != nil {
		q = q.Where("consultation_type = ?", *filter.ConsultationType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Consultation
	if err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateFields writes only the given columns of one row. It returns
// gorm.ErrRecordNotFound when no row has the id.
func (r *consultationRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Consultation{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *consultationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Consultation{}).Count(&count).Error
	return count, err
}

func (r *consultationRepository) CountByStatus(ctx context.Context, status models.ConsultationStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Consultation{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *consultationRepository) CountByType(ctx context.Context, t models.ConsultationType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Consultation{}).
		Where("consultation_type = ?", t).
		Count(&count).Error
	return count, err
}

// FindDueReminders returns scheduled consultations starting in [from, to) that
// have not been reminded yet.
func (r *consultationRepository) FindDueReminders(ctx context.Context, from, to time.Time) ([]models.Consultation, error) {
	var out []models.Consultation
	err := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent_at IS NULL", models.StatusScheduled).
		Where("scheduled_date >= ? AND scheduled_date < ?", from.UTC(), to.UTC()).
		Order("scheduled_date ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
