package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/Govind-619/FolioForge/models"
)

// CouponErrorReason says why a coupon could not be used.
type CouponErrorReason string

const (
	ReasonNotFound            CouponErrorReason = "NotFound"
	ReasonExpired             CouponErrorReason = "Expired"
	ReasonInactive            CouponErrorReason = "Inactive"
	ReasonMinimumAmountNotMet CouponErrorReason = "MinimumAmountNotMet"
	ReasonInvalid             CouponErrorReason = "Invalid"
)

// CouponError is returned for every recoverable coupon problem. Callers can
// re-prompt for a code or continue without one.
type CouponError struct {
	Reason CouponErrorReason
	Code   string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("coupon %q: %s", e.Code, e.Reason)
}

// Message is the user-facing text for the error.
func (e *CouponError) Message() string {
	switch e.Reason {
	case ReasonNotFound:
		return "Invalid coupon code"
	case ReasonExpired:
		return "Coupon has expired"
	case ReasonInactive:
		return "Coupon is no longer active"
	case ReasonMinimumAmountNotMet:
		return "Order amount is below the minimum for this coupon"
	default:
		return "Coupon cannot be applied"
	}
}

// IsCouponError reports whether err is a CouponError with the given reason.
func IsCouponError(err error, reason CouponErrorReason) bool {
	var ce *CouponError
	return errors.As(err, &ce) && ce.Reason == reason
}

// ValidateCoupon rejects inactive or expired coupons as of now.
func ValidateCoupon(coupon models.Coupon, now time.Time) error {
	if !coupon.IsActive {
		return &CouponError{Reason: ReasonInactive, Code: coupon.Code}
	}
	if coupon.ValidUntil.Before(now) {
		return &CouponError{Reason: ReasonExpired, Code: coupon.Code}
	}
	return nil
}
