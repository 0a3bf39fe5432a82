package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/plans"
	"github.com/Govind-619/FolioForge/pricing"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
)

// toAppError maps domain errors onto HTTP errors. Anything unrecognised is
// an internal error whose cause is logged but not returned.
func toAppError(err error) *utils.AppError {
	if appErr := utils.GetAppError(err); appErr != nil {
		return appErr
	}

	var couponErr *pricing.CouponError
	switch {
	case errors.As(err, &couponErr):
		return utils.BadRequestError(couponErr.Message(), err)
	case errors.Is(err, plans.ErrUnknownPlan):
		return utils.BadRequestError("Invalid plan", err)
	case errors.Is(err, services.ErrInvalidRequest):
		return utils.BadRequestError(err.Error(), err)
	case errors.Is(err, services.ErrFreePlanNoOrder),
		errors.Is(err, services.ErrPlanRequiresPayment):
		return utils.BadRequestError(capitalize(err.Error()), err)
	case errors.Is(err, services.ErrPaymentRejected):
		return utils.BadRequestError(utils.ErrPaymentRejected, err)
	case errors.Is(err, services.ErrInvalidUser):
		return utils.UnauthorizedError(utils.ErrUnauthorized, err)
	case errors.Is(err, services.ErrInvalidWebhookSignature):
		return utils.UnauthorizedError("Invalid webhook signature", err)
	case errors.Is(err, services.ErrNoTokens):
		return utils.PaymentRequiredError("No portfolio tokens left, upgrade your plan", err)
	case errors.Is(err, services.ErrAlreadySubscribed),
		errors.Is(err, services.ErrDowngrade),
		errors.Is(err, services.ErrSlugTaken):
		return utils.ConflictError(capitalize(err.Error()), err)
	case errors.Is(err, store.ErrDuplicate):
		return utils.ConflictError("Record already exists", err)
	case errors.Is(err, services.ErrPortfolioNotFound):
		return utils.NotFoundError("Portfolio not found", err)
	case errors.Is(err, store.ErrNotFound):
		return utils.NotFoundError(utils.ErrRecordNotFound, err)
	case errors.Is(err, gateway.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return utils.ServiceUnavailableError(utils.ErrServiceUnavailable, err)
	default:
		return utils.InternalError(utils.ErrInternalServer, err)
	}
}

// respondError writes err in the standard envelope.
func respondError(c *gin.Context, err error) {
	utils.RespondAppError(c, toAppError(err))
}

// respondCheckoutError writes err in the bare checkout shape
// {success:false, error}.
func respondCheckoutError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr.Code >= http.StatusInternalServerError {
		utils.LogError("%s %s: %v", c.Request.Method, c.FullPath(), appErr)
	}
	body := gin.H{"success": false, "error": appErr.Message}
	if appErr.Retryable {
		body["retryable"] = true
	}
	c.JSON(appErr.Code, body)
}

// bindJSON decodes the request body, answering 422 when it is malformed.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.LogDebug("Malformed request body on %s: %v", c.FullPath(), err)
		utils.ValidationError(c, utils.ErrInvalidRequest, err.Error())
		return false
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
