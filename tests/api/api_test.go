//go:build api

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Eursukkul/consultation-service/internal/middleware"
	"github.com/Eursukkul/consultation-service/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	serviceURL = getEnv("CONSULTATION_SERVICE_URL", "http://localhost:6500")
	keySecret  = os.Getenv("RAZORPAY_KEY_SECRET")
	jwtSecret  = os.Getenv("JWT_SECRET")
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
}

// TestAPI_FullFlow drives a booking end to end against a running server.
func TestAPI_FullFlow(t *testing.T) {
	if keySecret == "" || jwtSecret == "" {
		t.Skip("RAZORPAY_KEY_SECRET and JWT_SECRET must match the running server")
	}
	waitForService(t)

	suffix := fmt.Sprint(time.Now().UnixNano())
	orderID := "order_api_" + suffix
	paymentID := "pay_api_" + suffix
	var consultationID, reference string

	t.Run("Step1_GetKey", func(t *testing.T) {
		resp := get(t, serviceURL+"/api/razorpay-key", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		decodeJSON(t, resp, &body)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["key"])
	})

	t.Run("Step2_VerifyPayment", func(t *testing.T) {
		req := map[string]interface{}{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  payment.Sign(orderID, paymentID, keySecret),
			"consultationData": map[string]interface{}{
				"name":             "Meera",
				"age":              "27",
				"gender":           "female",
				"email":            "meera@example.com",
				"consultationType": "hair",
				"concerns":         "Hair fall",
			},
		}
		resp := post(t, serviceURL+"/api/verify-payment", req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Success      bool `json:"success"`
			Consultation struct {
				ID              string `json:"id"`
				ReferenceNumber string `json:"referenceNumber"`
				ScheduledTime   string `json:"scheduledTime"`
			} `json:"consultation"`
		}
		decodeJSON(t, resp, &body)
		assert.True(t, body.Success)
		assert.Equal(t, "10:00 AM", body.Consultation.ScheduledTime)
		consultationID = body.Consultation.ID
		reference = body.Consultation.ReferenceNumber
		assert.Regexp(t, `^CONS-[0-9A-F]{8}$`, reference)
	})

	t.Run("Step3_ReplayReturnsSameBooking", func(t *testing.T) {
		req := map[string]interface{}{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID,
			"razorpay_signature":  payment.Sign(orderID, paymentID, keySecret),
			"consultationData":    map[string]interface{}{"name": "Meera"},
		}
		resp := post(t, serviceURL+"/api/verify-payment", req)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Message      string                 `json:"message"`
			Consultation map[string]interface{} `json:"consultation"`
		}
		decodeJSON(t, resp, &body)
		assert.Equal(t, consultationID, body.Consultation["id"])
		assert.Equal(t, "Payment already verified, consultation booked", body.Message)
	})

	t.Run("Step4_TamperedSignature", func(t *testing.T) {
		req := map[string]interface{}{
			"razorpay_order_id":   orderID,
			"razorpay_payment_id": paymentID + "_x",
			"razorpay_signature":  payment.Sign(orderID, paymentID, keySecret),
			"consultationData":    map[string]interface{}{"name": "Meera"},
		}
		resp := post(t, serviceURL+"/api/verify-payment", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Step5_LookupByReference", func(t *testing.T) {
		resp := get(t, serviceURL+"/api/consultations/ref/"+reference, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body envelope
		decodeJSON(t, resp, &body)
		assert.Equal(t, consultationID, body.Data["_id"])
		assert.Equal(t, "scheduled", body.Data["status"])
	})

	t.Run("Step6_AdminRequiresToken", func(t *testing.T) {
		resp := get(t, serviceURL+"/api/consultations", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	token, err := middleware.IssueToken(jwtSecret, "api-admin", "admin", time.Hour)
	require.NoError(t, err)

	t.Run("Step7_AdminUpdate", func(t *testing.T) {
		req := map[string]interface{}{"status": "completed", "expertNotes": "Oil massage twice a week"}
		resp := put(t, serviceURL+"/api/consultations/"+consultationID, req, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body envelope
		decodeJSON(t, resp, &body)
		assert.Equal(t, "completed", body.Data["status"])
		assert.Equal(t, "Oil massage twice a week", body.Data["expertNotes"])
	})

	t.Run("Step8_AdminListAndStats", func(t *testing.T) {
		resp := get(t, serviceURL+"/api/consultations?status=completed&consultationType=hair&limit=5", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var list struct {
			Data       []map[string]interface{} `json:"data"`
			Pagination map[string]interface{}   `json:"pagination"`
		}
		decodeJSON(t, resp, &list)
		assert.NotEmpty(t, list.Data)
		assert.Equal(t, float64(5), list.Pagination["limit"])

		resp = get(t, serviceURL+"/api/consultations/stats/overview", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var stats envelope
		decodeJSON(t, resp, &stats)
		assert.GreaterOrEqual(t, stats.Data["total"], float64(1))
	})
}

func waitForService(t *testing.T) {
	for i := 0; i < 30; i++ {
		resp, err := http.Get(serviceURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(1 * time.Second)
	}
	t.Fatal("service did not become ready in time")
}

func do(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, url, token string) *http.Response {
	return do(t, http.MethodGet, url, nil, token)
}

func post(t *testing.T, url string, body interface{}) *http.Response {
	return do(t, http.MethodPost, url, body, "")
}

func put(t *testing.T, url string, body interface{}, token string) *http.Response {
	return do(t, http.MethodPut, url, body, token)
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
