package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Govind-619/FolioForge/gateway"
	"github.com/Govind-619/FolioForge/plans"
	"github.com/Govind-619/FolioForge/pricing"
	"github.com/Govind-619/FolioForge/services"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/stretchr/testify/assert"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		message   string
		retryable bool
	}{
		{"expired coupon", &pricing.CouponError{Reason: pricing.ReasonExpired, Code: "OLD"}, http.StatusBadRequest, "Coupon has expired", false},
		{"unknown plan", fmt.Errorf("quote: %w", plans.ErrUnknownPlan), http.StatusBadRequest, "Invalid plan", false},
		{"free plan order", services.ErrFreePlanNoOrder, http.StatusBadRequest, "Plan is free after discounts, activate it without payment", false},
		{"payment rejected", fmt.Errorf("signature: %w", services.ErrPaymentRejected), http.StatusBadRequest, utils.ErrPaymentRejected, false},
		{"invalid user", services.ErrInvalidUser, http.StatusUnauthorized, utils.ErrUnauthorized, false},
		{"webhook signature", services.ErrInvalidWebhookSignature, http.StatusUnauthorized, "Invalid webhook signature", false},
		{"no tokens", services.ErrNoTokens, http.StatusPaymentRequired, "No portfolio tokens left, upgrade your plan", false},
		{"same tier", services.ErrAlreadySubscribed, http.StatusConflict, "Plan is already active", false},
		{"downgrade", services.ErrDowngrade, http.StatusConflict, "Cannot purchase a lower plan than the active one", false},
		{"duplicate", store.ErrDuplicate, http.StatusConflict, "Record already exists", false},
		{"portfolio", services.ErrPortfolioNotFound, http.StatusNotFound, "Portfolio not found", false},
		{"record", store.ErrNotFound, http.StatusNotFound, utils.ErrRecordNotFound, false},
		{"gateway down", fmt.Errorf("create order: %w", gateway.ErrUnavailable), http.StatusServiceUnavailable, utils.ErrServiceUnavailable, true},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, utils.ErrServiceUnavailable, true},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, utils.ErrInternalServer, false},
		{"already mapped", utils.ForbiddenError("Nope", nil), http.StatusForbidden, "Nope", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := toAppError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.retryable, appErr.Retryable)
		})
	}
}

func TestUnexpectedErrorsHideCause(t *testing.T) {
	appErr := toAppError(errors.New("pq: password authentication failed"))
	assert.NotContains(t, appErr.Message, "pq")
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Slug already taken", capitalize("slug already taken"))
	assert.Equal(t, "Already", capitalize("Already"))
}
