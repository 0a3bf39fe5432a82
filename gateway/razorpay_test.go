package gateway

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	rzperrors "github.com/razorpay/razorpay-go/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestPaymentFromMap(t *testing.T) {
	m := decode(t, `{
		"id": "pay_29QQoUBi66xm2f",
		"entity": "payment",
		"amount": 48400,
		"currency": "INR",
		"status": "captured",
		"order_id": "order_9A33XWu170gUtm",
		"method": "card",
		"email": "gaurav.kumar@example.com",
		"notes": {"user_id": "u-1", "plan_id": "premium"},
		"created_at": 1700000000
	}`)

	p, err := PaymentFromMap(m)
	require.NoError(t, err)
	assert.Equal(t, "pay_29QQoUBi66xm2f", p.ID)
	assert.Equal(t, "order_9A33XWu170gUtm", p.OrderID)
	assert.Equal(t, int64(48400), p.AmountMinor)
	assert.True(t, p.Captured())
	assert.Equal(t, "premium", p.Notes["plan_id"])
	assert.Equal(t, time.Unix(1700000000, 0), p.CreatedAt)
}

func TestPaymentFromMap_EmptyNotesArray(t *testing.T) {
	p, err := PaymentFromMap(decode(t, `{"id":"pay_1","status":"authorized","notes":[]}`))
	require.NoError(t, err)
	assert.Empty(t, p.Notes)
	assert.False(t, p.Captured())
	assert.True(t, p.CreatedAt.IsZero())
}

func TestPaymentFromMap_MissingID(t *testing.T) {
	_, err := PaymentFromMap(decode(t, `{"status":"captured"}`))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOrderFromMap(t *testing.T) {
	o, err := orderFromMap(decode(t, `{
		"id": "order_1", "amount": 99900, "currency": "INR",
		"receipt": "rcpt_1", "status": "created", "notes": {"is_upgrade": true}
	}`))
	require.NoError(t, err)
	assert.Equal(t, int64(99900), o.AmountMinor)
	assert.Equal(t, "true", o.Notes["is_upgrade"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"bad request", &rzperrors.BadRequestError{Message: "The id provided does not exist"}, ErrRejected},
		{"server error", &rzperrors.ServerError{Message: "internal"}, ErrUnavailable},
		{"gateway error", &rzperrors.GatewayError{Message: "upstream"}, ErrUnavailable},
		{"transport", errors.New("dial tcp: i/o timeout"), ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("fetch payment", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "fetch payment")
		})
	}
	assert.NotErrorIs(t, classify("fetch order", &rzperrors.BadRequestError{Message: "x"}), ErrUnavailable)
}
