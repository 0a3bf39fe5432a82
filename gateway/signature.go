package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentSignature computes hex(HMAC_SHA256(secret, orderID|paymentID)), the
// signature the gateway returns to the checkout client.
func PaymentSignature(secret, orderID, paymentID string) string {
	return sign(secret, []byte(orderID+"|"+paymentID))
}

// VerifyPaymentSignature checks a checkout signature in constant time.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := PaymentSignature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookSignature computes hex(HMAC_SHA256(secret, body)).
func WebhookSignature(secret string, body []byte) string {
	return sign(secret, body)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header of a webhook.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(WebhookSignature(secret, body)), []byte(signature))
}

func sign(secret string, data []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
