package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyPaymentSignature(t *testing.T) {
	const secret = "test_secret"
	sig := PaymentSignature(secret, "order_1", "pay_1")
	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}

	assert.True(t, VerifyPaymentSignature(secret, "order_1", "pay_1", sig))

	tests := []struct {
		name      string
		secret    string
		orderID   string
		paymentID string
		signature string
	}{
		{"tampered signature", secret, "order_1", "pay_1", string(tampered)},
		{"tampered order id", secret, "order_2", "pay_1", sig},
		{"tampered payment id", secret, "order_1", "pay_2", sig},
		{"wrong secret", "other", "order_1", "pay_1", sig},
		{"empty signature", secret, "order_1", "pay_1", ""},
		{"empty secret", "", "order_1", "pay_1", PaymentSignature("", "order_1", "pay_1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyPaymentSignature(tt.secret, tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func TestPaymentSignature_Format(t *testing.T) {
	assert.Len(t, PaymentSignature("secret", "order_1", "pay_1"), 64)
	assert.NotEqual(t,
		PaymentSignature("secret", "order_1", "pay_1"),
		PaymentSignature("secret", "order_1|pay_1", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	sig := WebhookSignature("whsec", body)

	assert.True(t, VerifyWebhookSignature("whsec", body, sig))
	assert.False(t, VerifyWebhookSignature("whsec", []byte(`{"event":"order.paid"}`), sig))
	assert.False(t, VerifyWebhookSignature("", body, sig))
}
