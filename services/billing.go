// Package services holds the billing pipeline and the portfolio workflow.
// Handlers in controllers only translate HTTP to these calls.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/metrics"
	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/plans"
	"github.com/Govind-619/FolioForge/pricing"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/google/uuid"
)

var (
	// ErrInvalidUser is returned when the caller is not a known user.
	ErrInvalidUser = errors.New("user not authenticated")
	// ErrFreePlanNoOrder is returned when the final price is zero; the
	// client must use free activation instead of the gateway.
	ErrFreePlanNoOrder = errors.New("plan is free after discounts, activate it without payment")
	// ErrPlanRequiresPayment is returned when free activation is requested
	// for a plan that still costs something.
	ErrPlanRequiresPayment = errors.New("plan requires payment")
	// ErrAlreadySubscribed is returned when ordering the tier already held.
	ErrAlreadySubscribed = errors.New("plan is already active")
	// ErrDowngrade is returned when ordering a lower tier than the active one.
	ErrDowngrade = errors.New("cannot purchase a lower plan than the active one")
	// ErrPaymentRejected covers every verification failure. The wrapped
	// detail is for logs only.
	ErrPaymentRejected = errors.New("payment verification failed")
	// ErrInvalidWebhookSignature is returned for unauthenticated webhooks.
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	// ErrInvalidRequest is returned for missing required fields.
	ErrInvalidRequest = errors.New("invalid request")

	errAlreadyApplied = errors.New("entitlement already applied")
	errForeignPayment = errors.New("payment recorded for another user")
)

// BillingConfig carries the secrets and settings of the billing pipeline.
type BillingConfig struct {
	KeySecret     string
	WebhookSecret string
	Currency      string
}

// BillingService prices plans, creates gateway orders and applies
// entitlements once a payment is proven.
type BillingService struct {
	store   store.Store
	gateway gateway.Gateway
	catalog *plans.Catalog
	config  BillingConfig
	mailer  utils.Mailer
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewBillingService wires the billing pipeline. mailer and m may be nil.
func NewBillingService(st store.Store, gw gateway.Gateway, catalog *plans.Catalog, cfg BillingConfig, mailer utils.Mailer, m *metrics.Metrics) *BillingService {
	if cfg.Currency == "" {
		cfg.Currency = utils.DefaultCurrency
	}
	if mailer == nil {
		mailer = utils.NopMailer{}
	}
	return &BillingService{
		store:   st,
		gateway: gw,
		catalog: catalog,
		config:  cfg,
		mailer:  mailer,
		metrics: m,
		now:     time.Now,
	}
}

// Catalog returns the plan catalog.
func (s *BillingService) Catalog() *plans.Catalog {
	return s.catalog
}

// QuoteResult is a priced plan.
type QuoteResult struct {
	Plan     plans.Plan
	Quote    pricing.Quote
	Currency string
}

// Quote prices planID with an optional coupon as of now.
func (s *BillingService) Quote(ctx context.Context, planID, couponCode string) (QuoteResult, error) {
	return s.quoteAt(ctx, planID, couponCode, s.now())
}

func (s *BillingService) quoteAt(ctx context.Context, planID, couponCode string, at time.Time) (QuoteResult, error) {
	plan, err := s.catalog.Get(planID)
	if err != nil {
		return QuoteResult{}, err
	}
	coupon, err := s.resolveCoupon(ctx, couponCode, at)
	if err != nil {
		return QuoteResult{}, err
	}
	q, err := pricing.ComputeFinalPrice(plan.PriceDecimal(), coupon)
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{Plan: plan, Quote: q, Currency: s.config.Currency}, nil
}

func (s *BillingService) resolveCoupon(ctx context.Context, code string, at time.Time) (*models.Coupon, error) {
	code = models.NormalizeCouponCode(code)
	if code == "" {
		return nil, nil
	}
	coupon, err := s.store.GetCoupon(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &pricing.CouponError{Reason: pricing.ReasonNotFound, Code: code}
	}
	if err != nil {
		return nil, fmt.Errorf("load coupon: %w", err)
	}
	if err := pricing.ValidateCoupon(coupon, at); err != nil {
		return nil, err
	}
	return &coupon, nil
}

// CreateOrderRequest is the input of CreateOrder.
type CreateOrderRequest struct {
	UserID     string
	PlanID     string
	CouponCode string
	IsUpgrade  bool
}

// CreateOrder prices the plan server-side and asks the gateway for an
// order of exactly that amount.
func (s *BillingService) CreateOrder(ctx context.Context, req CreateOrderRequest) (gateway.Order, error) {
	if req.UserID == "" {
		return gateway.Order{}, ErrInvalidUser
	}
	user, err := s.store.GetUserByID(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return gateway.Order{}, ErrInvalidUser
	}
	if err != nil {
		return gateway.Order{}, fmt.Errorf("load user: %w", err)
	}

	quote, err := s.Quote(ctx, req.PlanID, req.CouponCode)
	if err != nil {
		return gateway.Order{}, err
	}
	if err := checkPurchasable(user, quote.Plan); err != nil {
		return gateway.Order{}, err
	}
	if quote.Quote.IsFree() {
		return gateway.Order{}, ErrFreePlanNoOrder
	}

	orderReq := gateway.OrderRequest{
		AmountMinor: quote.Quote.FinalMinorUnits(),
		Currency:    quote.Currency,
		Receipt:     newReceiptID(),
		Notes: map[string]string{
			"user_id":     user.ID,
			"plan_id":     quote.Plan.ID,
			"coupon_code": quote.Quote.CouponCode,
			"is_upgrade":  strconv.FormatBool(req.IsUpgrade),
		},
	}

	start := time.Now()
	order, err := s.gateway.CreateOrder(ctx, orderReq)
	s.metrics.ObserveGatewayCall("create_order", time.Since(start), err)
	s.metrics.ObserveOrder(quote.Plan.ID, err)
	if err != nil {
		utils.LoggerFromContext(ctx).Error().Err(err).
			Str("user_id", user.ID).
			Str("plan_id", quote.Plan.ID).
			Msg("billing.create_order.failed")
		if errors.Is(err, gateway.ErrRejected) {
			return gateway.Order{}, fmt.Errorf("%w: order rejected by payment gateway", ErrInvalidRequest)
		}
		return gateway.Order{}, fmt.Errorf("create order: %w", err)
	}

	utils.LoggerFromContext(ctx).Info().
		Str("user_id", user.ID).
		Str("plan_id", quote.Plan.ID).
		Str("order_id", order.ID).
		Int64("amount_minor", order.AmountMinor).
		Str("coupon", quote.Quote.CouponCode).
		Msg("billing.order_created")
	return order, nil
}

// checkPurchasable rejects buying the tier already held or a lower one.
func checkPurchasable(user models.User, plan plans.Plan) error {
	sub := user.Subscription
	if !sub.IsActive {
		return nil
	}
	if sub.Type == plan.SubscriptionTier {
		return ErrAlreadySubscribed
	}
	if models.TierRank(plan.SubscriptionTier) < models.TierRank(sub.Type) {
		return ErrDowngrade
	}
	return nil
}

func newReceiptID() string {
	return "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

// VerifyRequest is the client's confirmation after checkout.
type VerifyRequest struct {
	UserID     string
	PaymentID  string
	OrderID    string
	Signature  string
	PlanID     string
	CouponCode string
	IsUpgrade  bool
	// ClaimedAmount is what the client believes it paid. It is logged and
	// never used for the amount check.
	ClaimedAmount float64
}

// EntitlementResult is the user's state after verification or activation.
type EntitlementResult struct {
	Plan           string
	Tokens         int
	Subscription   models.Subscription
	AlreadyApplied bool
	Payment        *models.PaymentRecord
}

// VerifyAndApply runs the verification state machine: signature check,
// authoritative gateway fetch, amount check, then the entitlement
// transaction. Any rejection leaves the user untouched.
func (s *BillingService) VerifyAndApply(ctx context.Context, req VerifyRequest) (EntitlementResult, error) {
	if req.UserID == "" {
		return EntitlementResult{}, ErrInvalidUser
	}
	if req.PaymentID == "" || req.OrderID == "" || req.Signature == "" || req.PlanID == "" {
		return EntitlementResult{}, fmt.Errorf("%w: paymentId, orderId, signature and planId are required", ErrInvalidRequest)
	}
	if _, err := s.catalog.Get(req.PlanID); err != nil {
		return EntitlementResult{}, err
	}

	logger := utils.LoggerFromContext(ctx).With().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Str("payment_id", req.PaymentID).
		Str("plan_id", req.PlanID).
		Logger()

	if !gateway.VerifyPaymentSignature(s.config.KeySecret, req.OrderID, req.PaymentID, req.Signature) {
		logger.Warn().Msg("billing.verify.invalid_signature")
		s.metrics.ObserveVerification(req.PlanID, metrics.OutcomeRejected, s.config.Currency, 0)
		return EntitlementResult{}, fmt.Errorf("%w: invalid signature", ErrPaymentRejected)
	}
	logger.Debug().Float64("claimed_amount", req.ClaimedAmount).Msg("billing.verify.signature_ok")

	return s.confirmAndApply(ctx, paymentClaim{
		UserID:     req.UserID,
		PlanID:     req.PlanID,
		CouponCode: req.CouponCode,
		IsUpgrade:  req.IsUpgrade,
		OrderID:    req.OrderID,
		PaymentID:  req.PaymentID,
	})
}

// paymentClaim is what a client or webhook asserts about a payment.
type paymentClaim struct {
	UserID     string
	PlanID     string
	CouponCode string
	IsUpgrade  bool
	OrderID    string
	PaymentID  string
}

// confirmAndApply fetches the payment from the gateway, checks it against
// the server-side price and applies the entitlement.
func (s *BillingService) confirmAndApply(ctx context.Context, claim paymentClaim) (EntitlementResult, error) {
	logger := utils.LoggerFromContext(ctx).With().
		Str("user_id", claim.UserID).
		Str("order_id", claim.OrderID).
		Str("payment_id", claim.PaymentID).
		Str("plan_id", claim.PlanID).
		Logger()

	var payment gateway.Payment
	reject := func(reason, outcome string) (EntitlementResult, error) {
		logger.Warn().
			Str("reason", reason).
			Str("status", payment.Status).
			Int64("amount_minor", payment.AmountMinor).
			Msg("billing.verify.rejected")
		s.metrics.ObserveVerification(claim.PlanID, outcome, s.config.Currency, 0)
		return EntitlementResult{}, fmt.Errorf("%w: %s", ErrPaymentRejected, reason)
	}
	fetchFailed := func(err error) (EntitlementResult, error) {
		logger.Error().Err(err).Msg("billing.verify.fetch_failed")
		s.metrics.ObserveVerification(claim.PlanID, metrics.OutcomeError, s.config.Currency, 0)
		return EntitlementResult{}, err
	}

	start := time.Now()
	payment, err := s.gateway.FetchPayment(ctx, claim.PaymentID)
	s.metrics.ObserveGatewayCall("fetch_payment", time.Since(start), err)
	switch {
	case errors.Is(err, gateway.ErrRejected):
		return reject("unknown payment", metrics.OutcomeRejected)
	case err != nil:
		return fetchFailed(fmt.Errorf("fetch payment: %w", err))
	}

	if !payment.Captured() {
		return reject("payment not captured", metrics.OutcomeRejected)
	}
	if payment.OrderID != claim.OrderID {
		return reject("payment belongs to another order", metrics.OutcomeRejected)
	}

	// Payments do not carry notes. The owner is whoever CreateOrder wrote
	// into the order.
	start = time.Now()
	order, err := s.gateway.FetchOrder(ctx, claim.OrderID)
	s.metrics.ObserveGatewayCall("fetch_order", time.Since(start), err)
	switch {
	case errors.Is(err, gateway.ErrRejected):
		return reject("unknown order", metrics.OutcomeRejected)
	case err != nil:
		return fetchFailed(fmt.Errorf("fetch order: %w", err))
	}
	if owner := order.Notes["user_id"]; owner == "" || owner != claim.UserID {
		return reject("payment belongs to another user", metrics.OutcomeRejected)
	}

	// Coupons are checked as of the moment the customer paid, so a coupon
	// expiring between checkout and confirmation does not void a payment.
	paidAt := payment.CreatedAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}
	quote, err := s.quoteAt(ctx, claim.PlanID, claim.CouponCode, paidAt)
	var couponErr *pricing.CouponError
	switch {
	case errors.As(err, &couponErr), errors.Is(err, plans.ErrUnknownPlan):
		return reject("cannot price claimed plan: "+err.Error(), metrics.OutcomeMismatch)
	case err != nil:
		return EntitlementResult{}, err
	}
	expected := quote.Quote.FinalMinorUnits()
	if payment.AmountMinor != expected {
		logger.Warn().Int64("expected_minor", expected).Msg("billing.verify.amount_mismatch")
		return reject("amount mismatch", metrics.OutcomeMismatch)
	}
	if payment.Currency != "" && !strings.EqualFold(payment.Currency, quote.Currency) {
		return reject("currency mismatch", metrics.OutcomeMismatch)
	}

	return s.applyEntitlement(ctx, entitlementGrant{
		UserID:        claim.UserID,
		Quote:         quote,
		IsUpgrade:     claim.IsUpgrade,
		Method:        models.PaymentMethodRazorpay,
		TransactionID: payment.ID,
		OrderID:       payment.OrderID,
		AmountMinor:   payment.AmountMinor,
	})
}

type entitlementGrant struct {
	UserID        string
	Quote         QuoteResult
	IsUpgrade     bool
	Method        string
	TransactionID string
	OrderID       string
	AmountMinor   int64
}

// applyEntitlement is the only place a paid or coupon-covered plan changes
// a user. The idempotency checks run again on the locked user.
func (s *BillingService) applyEntitlement(ctx context.Context, g entitlementGrant) (EntitlementResult, error) {
	plan := g.Quote.Plan
	var record models.PaymentRecord

	user, err := s.store.UpdateUser(ctx, g.UserID, func(tx store.UserTx, u *models.User) error {
		owner, err := tx.PaymentOwner(ctx, g.TransactionID)
		if err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if owner != "" && owner != u.ID {
			return errForeignPayment
		}
		if owner != "" {
			return errAlreadyApplied
		}
		if u.Subscription.IsActive && u.Subscription.Type == plan.SubscriptionTier {
			return errAlreadyApplied
		}

		grant := plan.Tokens()
		higherActive := u.Subscription.IsActive &&
			models.TierRank(u.Subscription.Type) > models.TierRank(plan.SubscriptionTier)
		switch {
		case higherActive:
			// Never downgrade an active subscription; the tokens still count.
			u.Tokens = maxInt(u.Tokens, grant)
		case g.IsUpgrade && u.Subscription.IsActive:
			u.Subscription = models.Subscription{Type: plan.SubscriptionTier, IsActive: true}
			u.Tokens = maxInt(u.Tokens, grant)
		default:
			u.Subscription = models.Subscription{Type: plan.SubscriptionTier, IsActive: true}
			u.Tokens = grant
		}

		record = models.PaymentRecord{
			UserID:          u.ID,
			Amount:          pricing.ToFloat(pricing.FromMinorUnits(g.AmountMinor)),
			Currency:        g.Quote.Currency,
			Method:          g.Method,
			TransactionID:   g.TransactionID,
			OrderID:         g.OrderID,
			PlanID:          plan.ID,
			CouponCode:      g.Quote.Quote.CouponCode,
			Discount:        pricing.ToFloat(g.Quote.Quote.Discount),
			Status:          models.PaymentStatusCompleted,
			Date:            s.now(),
			TokensPurchased: grant,
		}
		return tx.AppendPayment(ctx, &record)
	})

	logger := utils.LoggerFromContext(ctx).With().
		Str("user_id", g.UserID).
		Str("plan_id", plan.ID).
		Str("transaction_id", g.TransactionID).
		Logger()

	if errors.Is(err, errForeignPayment) {
		logger.Warn().Str("reason", "payment belongs to another user").Msg("billing.verify.rejected")
		s.metrics.ObserveVerification(plan.ID, metrics.OutcomeRejected, g.Quote.Currency, 0)
		return EntitlementResult{}, fmt.Errorf("%w: payment belongs to another user", ErrPaymentRejected)
	}
	if errors.Is(err, errAlreadyApplied) || errors.Is(err, store.ErrDuplicate) {
		current, getErr := s.store.GetUserByID(ctx, g.UserID)
		if getErr != nil {
			return EntitlementResult{}, fmt.Errorf("load user: %w", getErr)
		}
		logger.Info().Msg("billing.entitlement.already_applied")
		s.metrics.ObserveVerification(plan.ID, metrics.OutcomeAlreadyApplied, g.Quote.Currency, g.AmountMinor)
		return resultFor(current, true, nil), nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return EntitlementResult{}, ErrInvalidUser
	}
	if err != nil {
		logger.Error().Err(err).Msg("billing.entitlement.failed")
		s.metrics.ObserveVerification(plan.ID, metrics.OutcomeError, g.Quote.Currency, 0)
		return EntitlementResult{}, fmt.Errorf("apply entitlement: %w", err)
	}

	logger.Info().
		Str("tier", user.Subscription.Type).
		Int("tokens", user.Tokens).
		Float64("amount", record.Amount).
		Str("method", record.Method).
		Msg("billing.entitlement.applied")
	if g.Method == models.PaymentMethodRazorpay {
		s.metrics.ObserveVerification(plan.ID, metrics.OutcomeApplied, g.Quote.Currency, g.AmountMinor)
	} else {
		s.metrics.ObserveFreeActivation(plan.ID, g.Method)
	}

	s.sendReceipt(ctx, user, record, plan.Name)
	return resultFor(user, false, &record), nil
}

// ActivateFreePlan grants a plan that costs nothing, either because the
// plan is free or because the coupon covers the whole price. The gateway
// is never called.
func (s *BillingService) ActivateFreePlan(ctx context.Context, userID, planID, couponCode string) (EntitlementResult, error) {
	if userID == "" {
		return EntitlementResult{}, ErrInvalidUser
	}
	quote, err := s.Quote(ctx, planID, couponCode)
	if err != nil {
		return EntitlementResult{}, err
	}
	if !quote.Quote.IsFree() {
		return EntitlementResult{}, ErrPlanRequiresPayment
	}
	if !quote.Plan.IsFree() {
		return s.applyEntitlement(ctx, entitlementGrant{
			UserID:        userID,
			Quote:         quote,
			Method:        models.PaymentMethodCoupon,
			TransactionID: "coupon_" + uuid.NewString(),
		})
	}
	return s.activateFreeTier(ctx, userID, quote)
}

func (s *BillingService) activateFreeTier(ctx context.Context, userID string, quote QuoteResult) (EntitlementResult, error) {
	plan := quote.Plan
	var record models.PaymentRecord

	user, err := s.store.UpdateUser(ctx, userID, func(tx store.UserTx, u *models.User) error {
		if u.Subscription.IsActive && u.Tokens >= 1 {
			return errAlreadyApplied
		}
		if !u.Subscription.IsActive || models.TierRank(u.Subscription.Type) <= models.TierRank(plan.SubscriptionTier) {
			u.Subscription = models.Subscription{Type: plan.SubscriptionTier, IsActive: true}
		}
		grant := maxInt(plan.Tokens(), 1)
		u.Tokens = maxInt(u.Tokens, grant)

		record = models.PaymentRecord{
			UserID:          u.ID,
			Amount:          0,
			Currency:        quote.Currency,
			Method:          models.PaymentMethodFree,
			TransactionID:   "free_" + uuid.NewString(),
			PlanID:          plan.ID,
			Status:          models.PaymentStatusCompleted,
			Date:            s.now(),
			TokensPurchased: grant,
		}
		return tx.AppendPayment(ctx, &record)
	})
	if errors.Is(err, errAlreadyApplied) {
		current, getErr := s.store.GetUserByID(ctx, userID)
		if getErr != nil {
			return EntitlementResult{}, fmt.Errorf("load user: %w", getErr)
		}
		return resultFor(current, true, nil), nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return EntitlementResult{}, ErrInvalidUser
	}
	if err != nil {
		return EntitlementResult{}, fmt.Errorf("activate free plan: %w", err)
	}

	utils.LoggerFromContext(ctx).Info().
		Str("user_id", userID).
		Str("plan_id", plan.ID).
		Int("tokens", user.Tokens).
		Msg("billing.free_plan.activated")
	s.metrics.ObserveFreeActivation(plan.ID, models.PaymentMethodFree)
	return resultFor(user, false, &record), nil
}

// sendReceipt mails a PDF receipt. Failures are logged and never undo the
// committed purchase.
func (s *BillingService) sendReceipt(ctx context.Context, user models.User, rec models.PaymentRecord, planName string) {
	if user.Email == "" {
		return
	}
	logger := utils.LoggerFromContext(ctx)
	pdf, err := RenderReceiptPDF(user, rec, planName)
	if err != nil {
		logger.Error().Err(err).Str("payment_id", rec.ID).Msg("billing.receipt.render_failed")
		return
	}
	body := fmt.Sprintf(`
		<h2>Thank you for your purchase!</h2>
		<p>Your <strong>%s</strong> plan is now active.</p>
		<p>Amount paid: %s %.2f</p>
		<p>Your receipt is attached.</p>
	`, planName, rec.Currency, rec.Amount)
	err = s.mailer.Send(ctx, user.Email, utils.AppName+" receipt", body, utils.Attachment{
		Name:    "receipt-" + rec.ID + ".pdf",
		Content: pdf,
	})
	if err != nil {
		logger.Error().Err(err).Str("to", utils.RedactEmail(user.Email)).Msg("billing.receipt.mail_failed")
	}
}

func resultFor(u models.User, alreadyApplied bool, rec *models.PaymentRecord) EntitlementResult {
	return EntitlementResult{
		Plan:           u.Subscription.Type,
		Tokens:         u.Tokens,
		Subscription:   u.Subscription,
		AlreadyApplied: alreadyApplied,
		Payment:        rec,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
