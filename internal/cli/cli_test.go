package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Eursukkul/consultation-service/internal/dto"
	"github.com/Eursukkul/consultation-service/internal/middleware"
	"github.com/Eursukkul/consultation-service/internal/models"
	"github.com/Eursukkul/consultation-service/internal/payment"
	"github.com/Eursukkul/consultation-service/internal/repository"
	"github.com/Eursukkul/consultation-service/internal/service"
	"github.com/Eursukkul/consultation-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServices(t *testing.T) (service.PaymentService, service.ConsultationService, repository.ConsultationRepository) {
	t.Helper()
	repo := repository.NewConsultationRepository(testutil.NewSQLiteDB(t))
	consultations := service.NewConsultationService(repo, time.UTC, nil)
	creds := payment.Credentials{}
	payments := service.NewPaymentService(creds, payment.NewRazorpayClient(creds, time.Second), consultations, nil, quietLogger())
	return payments, consultations, repo
}

func TestServer_Health(t *testing.T) {
	payments, consultations, _ := newTestServices(t)
	e := newServer(quietLogger(), "secret", time.UTC, payments, consultations)

	for _, path := range []string{"/health", "/api/health"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok","service":"consultation-service"}`, rec.Body.String())
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	payments, consultations, _ := newTestServices(t)
	e := newServer(quietLogger(), "secret", time.UTC, payments, consultations)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, rec.Body.String())
}

func TestServer_GatewayNotConfigured(t *testing.T) {
	payments, consultations, _ := newTestServices(t)
	e := newServer(quietLogger(), "secret", time.UTC, payments, consultations)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/razorpay-key", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestServer_AdminListRequiresToken(t *testing.T) {
	payments, consultations, _ := newTestServices(t)
	e := newServer(quietLogger(), "secret", time.UTC, payments, consultations)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/consultations", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_VerifiedPaymentWithBadDataIsServerError(t *testing.T) {
	repo := repository.NewConsultationRepository(testutil.NewSQLiteDB(t))
	consultations := service.NewConsultationService(repo, time.UTC, nil)
	creds := payment.Credentials{KeyID: "rzp_test_key", KeySecret: "secret"}
	payments := service.NewPaymentService(creds, payment.NewRazorpayClient(creds, time.Second), consultations, nil, quietLogger())
	e := newServer(quietLogger(), "secret", time.UTC, payments, consultations)

	body := `{"razorpay_order_id":"o2","razorpay_payment_id":"p2","razorpay_signature":"` + payment.Sign("o2", "p2", "secret") + `",
		"consultationData":{"name":"Asha","age":"abc","gender":"female","consultationType":"skin","skinType":"oily"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/verify-payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"age"}, resp.Fields)
	assert.Equal(t, "o2", resp.OrderID)
	assert.Equal(t, "p2", resp.PaymentID)

	_, err := consultations.FindByPaymentID(context.Background(), "p2")
	assert.ErrorIs(t, err, service.ErrConsultationNotFound)
}

func TestServer_HugePageIsEmpty(t *testing.T) {
	payments, consultations, repo := newTestServices(t)
	seedScheduled(t, repo, "dddddddd0000000000000004", "d@example.com", time.Now().Add(time.Hour))
	e := newServer(quietLogger(), "secret", time.UTC, payments, consultations)

	token, err := middleware.IssueToken("secret", "admin-1", "admin", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/consultations?page=922337203685477582&limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ConsultationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	assert.Equal(t, service.MaxPage, resp.Pagination.Page)
}

// --- Reminders ---

type fakeReminder struct {
	failFor string
	sent    []string
}

func (f *fakeReminder) SendReminder(ctx context.Context, c models.Consultation) error {
	if c.Email == f.failFor {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, c.ID)
	return nil
}

func seedScheduled(t *testing.T, repo repository.ConsultationRepository, id, email string, at time.Time) {
	t.Helper()
	at = at.UTC()
	slot := "10:00 AM"
	require.NoError(t, repo.Create(context.Background(), &models.Consultation{
		ID:                id,
		ReferenceNumber:   models.ReferenceNumber(id),
		Name:              "Asha",
		Age:               30,
		Gender:            models.GenderFemale,
		Email:             email,
		ConsultationType:  models.TypeHair,
		RazorpayOrderID:   "order_" + id,
		RazorpayPaymentID: "pay_" + id,
		Amount:            models.ConsultationFee,
		PaymentStatus:     models.PaymentCompleted,
		ScheduledDate:     &at,
		ScheduledTime:     &slot,
		Status:            models.StatusScheduled,
	}))
}

func TestSendReminders(t *testing.T) {
	_, consultations, repo := newTestServices(t)
	now := time.Now().UTC().Truncate(time.Second)

	seedScheduled(t, repo, "aaaaaaaa0000000000000001", "a@example.com", now.Add(2*time.Hour))
	seedScheduled(t, repo, "bbbbbbbb0000000000000002", "b@example.com", now.Add(3*time.Hour))
	seedScheduled(t, repo, "cccccccc0000000000000003", "c@example.com", now.Add(48*time.Hour))

	mail := &fakeReminder{failFor: "b@example.com"}
	sent, err := sendReminders(context.Background(), consultations, mail, now, 24*time.Hour, quietLogger())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"aaaaaaaa0000000000000001"}, mail.sent)

	got, err := consultations.Get(context.Background(), "aaaaaaaa0000000000000001")
	require.NoError(t, err)
	assert.NotNil(t, got.ReminderSentAt)

	// The failed one is retried, the reminded one is not.
	mail.failFor = ""
	mail.sent = nil
	sent, err = sendReminders(context.Background(), consultations, mail, now, 24*time.Hour, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"bbbbbbbb0000000000000002"}, mail.sent)
}
