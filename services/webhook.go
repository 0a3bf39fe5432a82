package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/metrics"
	"github.com/Govind-619/FolioForge/utils"
)

// Razorpay webhook events that confirm a payment.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// Webhook outcomes
const (
	WebhookApplied        = "applied"
	WebhookAlreadyApplied = "already_applied"
	WebhookIgnored        = "ignored"
	WebhookRejected       = "rejected"
)

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity map[string]interface{} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity map[string]interface{} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// WebhookResult reports what a webhook delivery did.
type WebhookResult struct {
	Event     string
	Outcome   string
	PaymentID string
}

// HandleWebhook authenticates a gateway webhook and, for payment
// confirmations, runs the same fetch, amount check and entitlement update
// as client verification. Rejections are acknowledged so the gateway does
// not redeliver them; only transient failures are returned as errors.
func (s *BillingService) HandleWebhook(ctx context.Context, body []byte, signature string) (WebhookResult, error) {
	if !gateway.VerifyWebhookSignature(s.config.WebhookSecret, body, signature) {
		s.metrics.ObserveWebhook("unknown", WebhookRejected)
		return WebhookResult{}, ErrInvalidWebhookSignature
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		s.metrics.ObserveWebhook("unknown", WebhookRejected)
		return WebhookResult{}, fmt.Errorf("%w: malformed webhook body", ErrInvalidRequest)
	}
	result := WebhookResult{Event: env.Event, Outcome: WebhookIgnored}
	logger := utils.LoggerFromContext(ctx).With().Str("event", env.Event).Logger()

	if env.Event != EventPaymentCaptured && env.Event != EventOrderPaid {
		logger.Debug().Msg("billing.webhook.ignored")
		s.metrics.ObserveWebhook(env.Event, WebhookIgnored)
		return result, nil
	}
	if env.Payload.Payment.Entity == nil {
		logger.Warn().Msg("billing.webhook.missing_payment")
		s.metrics.ObserveWebhook(env.Event, WebhookIgnored)
		return result, nil
	}

	payment, err := gateway.PaymentFromMap(env.Payload.Payment.Entity)
	if err != nil {
		logger.Warn().Err(err).Msg("billing.webhook.bad_payment")
		s.metrics.ObserveWebhook(env.Event, WebhookIgnored)
		return result, nil
	}
	result.PaymentID = payment.ID

	notes, err := s.webhookOrderNotes(ctx, env.Payload.Order.Entity, payment.OrderID)
	if errors.Is(err, gateway.ErrRejected) {
		logger.Warn().Err(err).Str("payment_id", payment.ID).Msg("billing.webhook.unknown_order")
		s.metrics.ObserveWebhook(env.Event, WebhookIgnored)
		return result, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("payment_id", payment.ID).Msg("billing.webhook.fetch_order_failed")
		s.metrics.ObserveWebhook(env.Event, metrics.OutcomeError)
		return result, err
	}
	claim := paymentClaim{
		UserID:     notes["user_id"],
		PlanID:     notes["plan_id"],
		CouponCode: notes["coupon_code"],
		OrderID:    payment.OrderID,
		PaymentID:  payment.ID,
	}
	claim.IsUpgrade, _ = strconv.ParseBool(notes["is_upgrade"])
	if claim.UserID == "" || claim.PlanID == "" || claim.OrderID == "" {
		logger.Warn().Str("payment_id", payment.ID).Msg("billing.webhook.missing_notes")
		s.metrics.ObserveWebhook(env.Event, WebhookIgnored)
		return result, nil
	}

	res, err := s.confirmAndApply(ctx, claim)
	switch {
	case err == nil && res.AlreadyApplied:
		result.Outcome = WebhookAlreadyApplied
	case err == nil:
		result.Outcome = WebhookApplied
	case errors.Is(err, ErrPaymentRejected), errors.Is(err, ErrInvalidUser):
		logger.Warn().Err(err).Str("payment_id", payment.ID).Msg("billing.webhook.rejected")
		result.Outcome = WebhookRejected
	default:
		s.metrics.ObserveWebhook(env.Event, metrics.OutcomeError)
		return result, err
	}
	s.metrics.ObserveWebhook(env.Event, result.Outcome)
	return result, nil
}

// webhookOrderNotes returns the notes CreateOrder wrote. order.paid carries
// the order entity; payment.captured does not, so the order is fetched.
func (s *BillingService) webhookOrderNotes(ctx context.Context, entity map[string]interface{}, orderID string) (map[string]string, error) {
	if entity != nil {
		return gateway.NotesFromMap(entity), nil
	}
	if orderID == "" {
		return map[string]string{}, nil
	}
	start := time.Now()
	order, err := s.gateway.FetchOrder(ctx, orderID)
	s.metrics.ObserveGatewayCall("fetch_order", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}
	return order.Notes, nil
}
