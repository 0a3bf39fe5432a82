package controllers

import (
	"net/http"

	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/middleware"
	"github.com/Govind-619/FolioForge/pricing"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// BillingController exposes plans, coupon preview and the checkout flow.
type BillingController struct {
	billing *services.BillingService
	keyID   string
	fake    *gateway.FakeGateway
}

// NewBillingController creates the checkout handlers. fake is only set when
// the fake gateway is configured; it enables the development pay endpoint.
func NewBillingController(billing *services.BillingService, keyID string, fake *gateway.FakeGateway) *BillingController {
	return &BillingController{billing: billing, keyID: keyID, fake: fake}
}

// CreateOrderRequest is the body of POST /api/create-order
type CreateOrderRequest struct {
	PlanID     string `json:"planId" binding:"required"`
	CouponCode string `json:"couponCode"`
	IsUpgrade  bool   `json:"isUpgrade"`
}

// VerifyPaymentRequest is the body of POST /api/verify-payment
type VerifyPaymentRequest struct {
	PaymentID  string  `json:"paymentId" binding:"required"`
	OrderID    string  `json:"orderId" binding:"required"`
	Signature  string  `json:"signature" binding:"required"`
	PlanID     string  `json:"planId" binding:"required"`
	CouponCode string  `json:"couponCode"`
	IsUpgrade  bool    `json:"isUpgrade"`
	Amount     float64 `json:"amount"`
}

// PlanRequest is the body of the coupon preview and free activation
type PlanRequest struct {
	PlanID     string `json:"planId" binding:"required"`
	CouponCode string `json:"couponCode"`
}

// ListPlans returns the plan catalog.
func (b *BillingController) ListPlans(c *gin.Context) {
	catalog := b.billing.Catalog().List()
	out := make([]gin.H, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, gin.H{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
			"price":       pricing.FormatAmount(p.PriceDecimal()),
			"tier":        p.SubscriptionTier,
			"tokens":      p.Tokens(),
			"unlimited":   p.IsUnlimited(),
		})
	}
	utils.Success(c, "Plans retrieved successfully", gin.H{"plans": out})
}

// ApplyCoupon previews the price of a plan with a coupon.
func (b *BillingController) ApplyCoupon(c *gin.Context) {
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := b.billing.Quote(c.Request.Context(), req.PlanID, req.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Coupon applied successfully", gin.H{
		"plan_id":      res.Plan.ID,
		"coupon_code":  res.Quote.CouponCode,
		"base_price":   pricing.FormatAmount(res.Quote.BasePrice),
		"discount":     pricing.FormatAmount(res.Quote.Discount),
		"final_price":  pricing.FormatAmount(res.Quote.FinalPrice),
		"amount_minor": res.Quote.FinalMinorUnits(),
		"currency":     res.Currency,
		"is_free":      res.Quote.IsFree(),
	})
}

// CreateOrder starts a checkout and returns the gateway order.
func (b *BillingController) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	user, _ := middleware.CurrentUser(c)

	order, err := b.billing.CreateOrder(c.Request.Context(), services.CreateOrderRequest{
		UserID:     user.ID,
		PlanID:     req.PlanID,
		CouponCode: req.CouponCode,
		IsUpgrade:  req.IsUpgrade,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": gin.H{
			"id":       order.ID,
			"amount":   order.AmountMinor,
			"currency": order.Currency,
		},
		"keyId": b.keyID,
	})
}

// VerifyPayment confirms a checkout and applies the plan.
func (b *BillingController) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	user, _ := middleware.CurrentUser(c)

	res, err := b.billing.VerifyAndApply(c.Request.Context(), services.VerifyRequest{
		UserID:        user.ID,
		PaymentID:     req.PaymentID,
		OrderID:       req.OrderID,
		Signature:     req.Signature,
		PlanID:        req.PlanID,
		CouponCode:    req.CouponCode,
		IsUpgrade:     req.IsUpgrade,
		ClaimedAmount: req.Amount,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, entitlementView(res))
}

// ActivateFreePlan grants a plan that costs nothing after discounts.
func (b *BillingController) ActivateFreePlan(c *gin.Context) {
	var req PlanRequest
	if !bindJSON(c, &req) {
		return
	}
	user, _ := middleware.CurrentUser(c)

	res, err := b.billing.ActivateFreePlan(c.Request.Context(), user.ID, req.PlanID, req.CouponCode)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	c.JSON(http.StatusOK, entitlementView(res))
}

// DevPayRequest is the body of POST /api/dev/pay
type DevPayRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status"`
}

// DevPay settles an order on the fake gateway and returns what the checkout
// widget would hand to the client.
func (b *BillingController) DevPay(c *gin.Context) {
	if b.fake == nil {
		utils.NotFound(c, "Fake gateway is not enabled")
		return
	}
	var req DevPayRequest
	if !bindJSON(c, &req) {
		return
	}
	order, ok := b.fake.Order(req.OrderID)
	if !ok {
		utils.NotFound(c, "Order not found")
		return
	}
	status := req.Status
	if status == "" {
		status = gateway.StatusCaptured
	}
	paymentID, signature := b.fake.Pay(order.ID, order.AmountMinor, status)
	utils.Success(c, "Payment simulated", gin.H{
		"paymentId": paymentID,
		"orderId":   order.ID,
		"signature": signature,
	})
}

func entitlementView(res services.EntitlementResult) gin.H {
	return gin.H{
		"success":        true,
		"plan":           res.Plan,
		"tokens":         res.Tokens,
		"alreadyApplied": res.AlreadyApplied,
	}
}
