// Package pricing computes what a user pays for a plan once a coupon is
// applied. All arithmetic is done in major currency units with exact decimals;
// rounding happens only when an amount is displayed or charged.
package pricing

import (
	"github.com/Govind-619/FolioForge/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the outcome of applying an optional coupon to a base price.
type Quote struct {
	BasePrice  decimal.Decimal
	Discount   decimal.Decimal
	FinalPrice decimal.Decimal
	CouponCode string
}

// IsFree reports whether nothing is left to charge.
func (q Quote) IsFree() bool {
	return !q.FinalPrice.IsPositive()
}

// FinalMinorUnits is the amount to send to the payment gateway.
func (q Quote) FinalMinorUnits() int64 {
	return ToMinorUnits(q.FinalPrice)
}

// ComputeFinalPrice applies coupon to basePrice. A nil coupon leaves the price
// unchanged. The coupon must already have passed ValidateCoupon; only the
// minimum amount rule is checked here.
func ComputeFinalPrice(basePrice decimal.Decimal, coupon *models.Coupon) (Quote, error) {
	q := Quote{
		BasePrice:  basePrice,
		Discount:   decimal.Zero,
		FinalPrice: basePrice,
	}
	if coupon == nil {
		return q, nil
	}

	if coupon.MinAmount != nil && basePrice.LessThan(decimal.NewFromFloat(*coupon.MinAmount)) {
		return Quote{}, &CouponError{Reason: ReasonMinimumAmountNotMet, Code: coupon.Code}
	}

	value := decimal.NewFromFloat(coupon.DiscountValue)
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountPercentage:
		discount = basePrice.Mul(value).Div(hundred)
		if coupon.MaxDiscount != nil {
			discount = decimal.Min(discount, decimal.NewFromFloat(*coupon.MaxDiscount))
		}
	case models.DiscountFixed:
		discount = value
	default:
		return Quote{}, &CouponError{Reason: ReasonInvalid, Code: coupon.Code}
	}

	q.Discount = discount
	q.FinalPrice = decimal.Max(decimal.Zero, basePrice.Sub(discount))
	q.CouponCode = coupon.Code
	return q, nil
}

// ToMinorUnits converts a major-unit amount (rupees, dollars) into the
// smallest currency unit (paise, cents), rounding to two decimal places first.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(hundred).IntPart()
}

// FromMinorUnits converts paise/cents back into major units.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatAmount renders an amount with two decimal places for display.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// ToFloat rounds an amount to two decimal places for storage in records.
func ToFloat(amount decimal.Decimal) float64 {
	return amount.Round(2).InexactFloat64()
}
