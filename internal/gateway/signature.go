package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentSignature returns the hex HMAC-SHA256 the gateway attaches to a
// completed checkout: the message is "<orderID>|<paymentID>" keyed with
// the API key secret.
func PaymentSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookSignature returns the hex HMAC-SHA256 of the raw webhook body
// keyed with the webhook secret.
func WebhookSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares an expected signature with the one supplied by
// the caller in constant time.
func VerifySignature(expected, provided string) bool {
	return hmac.Equal([]byte(expected), []byte(provided))
}
