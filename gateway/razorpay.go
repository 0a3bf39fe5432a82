package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
)

// RazorpayGateway is the Gateway backed by the Razorpay REST API.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway creates a client for the given API key pair.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder creates an auto-captured order.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"payment_capture": 1,
	}
	if len(req.Notes) > 0 {
		notes := make(map[string]interface{}, len(req.Notes))
		for k, v := range req.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return Order{}, classify("create order", err)
	}
	return orderFromMap(body)
}

// FetchOrder retrieves an order, notes included.
func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return Order{}, classify("fetch order", err)
	}
	return orderFromMap(body)
}

// FetchPayment retrieves a payment by id.
func (g *RazorpayGateway) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, err
	}
	body, err := g.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return Payment{}, classify("fetch payment", err)
	}
	return PaymentFromMap(body)
}

// classify maps razorpay-go errors onto ErrRejected for 4xx answers and
// ErrUnavailable for server, gateway and transport failures.
func classify(op string, err error) error {
	var badRequest *rzperrors.BadRequestError
	if errors.As(err, &badRequest) {
		return fmt.Errorf("%w: %s: %v", ErrRejected, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func orderFromMap(m map[string]interface{}) (Order, error) {
	id := stringField(m, "id")
	if id == "" {
		return Order{}, fmt.Errorf("%w: order response without id", ErrUnavailable)
	}
	return Order{
		ID:          id,
		AmountMinor: int64Field(m, "amount"),
		Currency:    stringField(m, "currency"),
		Receipt:     stringField(m, "receipt"),
		Status:      stringField(m, "status"),
		Notes:       notesField(m),
	}, nil
}

// PaymentFromMap converts a decoded Razorpay payment entity. It is shared by
// the API client and the webhook handler.
func PaymentFromMap(m map[string]interface{}) (Payment, error) {
	id := stringField(m, "id")
	if id == "" {
		return Payment{}, fmt.Errorf("%w: payment entity without id", ErrUnavailable)
	}
	p := Payment{
		ID:          id,
		OrderID:     stringField(m, "order_id"),
		Status:      stringField(m, "status"),
		Method:      stringField(m, "method"),
		AmountMinor: int64Field(m, "amount"),
		Currency:    stringField(m, "currency"),
		Email:       stringField(m, "email"),
		Notes:       notesField(m),
	}
	if ts := int64Field(m, "created_at"); ts > 0 {
		p.CreatedAt = time.Unix(ts, 0)
	}
	return p, nil
}

// NotesFromMap extracts the notes object of any Razorpay entity.
func NotesFromMap(m map[string]interface{}) map[string]string {
	return notesField(m)
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// notesField handles Razorpay returning `[]` for empty notes and an object
// otherwise.
func notesField(m map[string]interface{}) map[string]string {
	raw, ok := m["notes"].(map[string]interface{})
	if !ok {
		return map[string]string{}
	}
	notes := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			notes[k] = s
		} else if v != nil {
			notes[k] = fmt.Sprintf("%v", v)
		}
	}
	return notes
}
