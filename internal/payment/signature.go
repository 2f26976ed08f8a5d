package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 of "orderID|paymentID" keyed by
// secret, the signature Razorpay attaches to a checkout callback.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether claimed is the exact signature for the
// order/payment pair. Any empty input fails verification.
func VerifySignature(orderID, paymentID, claimed, secret string) bool {
	if orderID == "" || paymentID == "" || claimed == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(claimed))
}
