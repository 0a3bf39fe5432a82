package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeGateway is an in-process gateway for local development and tests.
// Orders are kept in memory; Pay simulates the checkout widget.
type FakeGateway struct {
	mu        sync.Mutex
	secret    string
	seq       int
	orders    map[string]Order
	payments  map[string]Payment
	FailNext  error
	Calls     int
	createdAt func() time.Time
}

// NewFakeGateway returns a fake that signs payments with secret.
func NewFakeGateway(secret string) *FakeGateway {
	return &FakeGateway{
		secret:    secret,
		orders:    make(map[string]Order),
		payments:  make(map[string]Payment),
		createdAt: time.Now,
	}
}

func (g *FakeGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if err := g.takeFailure(); err != nil {
		return Order{}, err
	}
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	g.seq++
	o := Order{
		ID:          fmt.Sprintf("order_fake%06d", g.seq),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
		Status:      "created",
		Notes:       copyNotes(req.Notes),
	}
	g.orders[o.ID] = o
	return o, nil
}

func (g *FakeGateway) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if err := g.takeFailure(); err != nil {
		return Payment{}, err
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return Payment{}, fmt.Errorf("%w: payment %s not found", ErrRejected, paymentID)
	}
	return p, nil
}

func (g *FakeGateway) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if err := g.takeFailure(); err != nil {
		return Order{}, err
	}
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	o, ok := g.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s not found", ErrRejected, orderID)
	}
	o.Notes = copyNotes(o.Notes)
	return o, nil
}

// Pay records a payment of amountMinor against orderID with the given status
// and returns the payment id and checkout signature. Like the real gateway,
// the payment does not inherit the order's notes.
func (g *FakeGateway) Pay(orderID string, amountMinor int64, status string) (paymentID, signature string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	paymentID = fmt.Sprintf("pay_fake%06d", g.seq)
	o := g.orders[orderID]
	g.payments[paymentID] = Payment{
		ID:          paymentID,
		OrderID:     orderID,
		Status:      status,
		Method:      "card",
		AmountMinor: amountMinor,
		Currency:    o.Currency,
		Notes:       map[string]string{},
		CreatedAt:   g.createdAt(),
	}
	return paymentID, PaymentSignature(g.secret, orderID, paymentID)
}

// Order returns a created order.
func (g *FakeGateway) Order(orderID string) (Order, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	return o, ok
}

func (g *FakeGateway) takeFailure() error {
	if g.FailNext == nil {
		return nil
	}
	err := g.FailNext
	g.FailNext = nil
	return err
}

func copyNotes(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
