// Package gateway talks to the external payment gateway. Everything above
// this package depends on the Gateway interface only.
package gateway

import (
	"context"
	"errors"
	"time"
)

// StatusCaptured is the payment status of a completed charge.
const StatusCaptured = "captured"

var (
	// ErrUnavailable wraps server, gateway and transport failures. Callers
	// treat it as transient and safe to retry.
	ErrUnavailable = errors.New("payment gateway unavailable")
	// ErrRejected wraps requests the gateway refused, such as an unknown
	// payment id. Retrying the same request will not help.
	ErrRejected = errors.New("payment gateway rejected the request")
)

// OrderRequest describes an order to create. AmountMinor is already in the
// smallest currency unit.
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway's order object.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
	Notes       map[string]string
}

// Payment is the gateway's authoritative view of a payment.
type Payment struct {
	ID          string
	OrderID     string
	Status      string
	Method      string
	AmountMinor int64
	Currency    string
	Email       string
	Notes       map[string]string
	CreatedAt   time.Time
}

// Captured reports whether the charge completed.
func (p Payment) Captured() bool {
	return p.Status == StatusCaptured
}

// Gateway creates orders and fetches orders and payments. Payments do not
// carry their order's notes; read those from FetchOrder.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	FetchOrder(ctx context.Context, orderID string) (Order, error)
	FetchPayment(ctx context.Context, paymentID string) (Payment, error)
}
