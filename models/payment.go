package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment record statuses and methods
const (
	PaymentStatusCompleted = "completed"

	PaymentMethodRazorpay = "razorpay"
	PaymentMethodFree     = "free"
	PaymentMethodCoupon   = "coupon"
)

// PaymentRecord is an append-only entry in a user's payment history
type PaymentRecord struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID          string    `json:"user_id" gorm:"index;not null" bson:"userId"`
	Amount          float64   `json:"amount" bson:"amount"`
	Currency        string    `json:"currency" bson:"currency"`
	Method          string    `json:"method" bson:"method"`
	TransactionID   string    `json:"transaction_id" gorm:"uniqueIndex;not null" bson:"transactionId"`
	OrderID         string    `json:"order_id,omitempty" bson:"orderId,omitempty"`
	PlanID          string    `json:"plan_id" bson:"planId"`
	CouponCode      string    `json:"coupon_code,omitempty" bson:"couponCode,omitempty"`
	Discount        float64   `json:"discount" bson:"discount"`
	Status          string    `json:"status" bson:"status"`
	Date            time.Time `json:"date" gorm:"index" bson:"date"`
	TokensPurchased int       `json:"tokens_purchased" bson:"tokensPurchased"`
}

func (p *PaymentRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
