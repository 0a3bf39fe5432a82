package controllers

import (
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// RazorpaySignatureHeader carries the webhook body signature.
const RazorpaySignatureHeader = "X-Razorpay-Signature"

// WebhookController receives gateway events.
type WebhookController struct {
	billing *services.BillingService
}

func NewWebhookController(billing *services.BillingService) *WebhookController {
	return &WebhookController{billing: billing}
}

// Razorpay handles POST /api/webhooks/razorpay. Only transient failures
// answer with a non-2xx status so the gateway redelivers.
func (w *WebhookController) Razorpay(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		utils.ValidationError(c, utils.ErrInvalidRequest, "unreadable body")
		return
	}

	res, err := w.billing.HandleWebhook(c.Request.Context(), body, c.GetHeader(RazorpaySignatureHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Webhook processed", gin.H{
		"event":   res.Event,
		"outcome": res.Outcome,
	})
}
