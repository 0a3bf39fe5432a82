package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures the circuit breaker in front of the gateway.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval after which closed-state counts reset. Zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker when reached.
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns the settings used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerGateway wraps a Gateway so that a failing upstream is cut off
// instead of being hammered by every checkout.
type BreakerGateway struct {
	next    Gateway
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerGateway wraps next with a circuit breaker.
func NewBreakerGateway(next Gateway, cfg BreakerConfig) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:        "payment_gateway",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// Only upstream outages count against the breaker; a cancelled
		// request says nothing about the gateway's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit_breaker.state_change")
		},
	}
	return &BreakerGateway{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// State exposes the breaker state for health reporting.
func (g *BreakerGateway) State() string {
	return g.breaker.State().String()
}

func (g *BreakerGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.CreateOrder(ctx, req)
	})
	if err != nil {
		return Order{}, breakerError(err)
	}
	return res.(Order), nil
}

func (g *BreakerGateway) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.FetchOrder(ctx, orderID)
	})
	if err != nil {
		return Order{}, breakerError(err)
	}
	return res.(Order), nil
}

func (g *BreakerGateway) FetchPayment(ctx context.Context, paymentID string) (Payment, error) {
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.FetchPayment(ctx, paymentID)
	})
	if err != nil {
		return Payment{}, breakerError(err)
	}
	return res.(Payment), nil
}

func breakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
