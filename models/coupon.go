package models

import (
	"strings"
	"time"
)

// Coupon discount types
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	Code          string    `gorm:"primaryKey;type:varchar(64)" json:"code" bson:"_id"`
	DiscountType  string    `gorm:"not null" json:"discount_type" bson:"discountType"` // "percentage" or "fixed"
	DiscountValue float64   `json:"discount_value" bson:"discountValue"`
	MinAmount     *float64  `json:"min_amount,omitempty" bson:"minAmount,omitempty"`
	MaxDiscount   *float64  `json:"max_discount,omitempty" bson:"maxDiscount,omitempty"`
	ValidUntil    time.Time `json:"valid_until" bson:"validUntil"`
	IsActive      bool      `json:"is_active" bson:"isActive"`
	CreatedAt     time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updatedAt"`
}

// NormalizeCouponCode makes coupon lookups case-insensitive. Codes are
// always stored upper-cased.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
