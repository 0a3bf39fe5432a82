package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription tiers
const (
	TierFree    = "free"
	TierPremium = "premium"
	TierPro     = "pro"
)

// UnlimitedTokens is stored in place of an unbounded token grant.
const UnlimitedTokens = 1_000_000

// Subscription is the entitlement a user currently holds. It is only
// mutated by payment verification or free plan activation.
type Subscription struct {
	Type      string     `json:"type" bson:"type" gorm:"default:'free'"`
	IsActive  bool       `json:"is_active" bson:"isActive" gorm:"default:false"`
	ExpiresAt *time.Time `json:"expires_at" bson:"expiresAt"`
}

// User represents a registered account
type User struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Email        string       `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	Name         string       `json:"name" bson:"name"`
	PasswordHash string       `json:"-" bson:"passwordHash"`
	GoogleID     *string      `gorm:"uniqueIndex" json:"-" bson:"googleId,omitempty"`
	IsAdmin      bool         `json:"is_admin" gorm:"default:false" bson:"isAdmin"`
	Subscription Subscription `gorm:"embedded;embeddedPrefix:subscription_" json:"subscription" bson:"subscription"`
	Tokens       int          `json:"tokens" gorm:"not null;default:0" bson:"tokens"`
	CreatedAt    time.Time    `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updatedAt"`
}

// BeforeCreate assigns a UUID primary key when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// HasUnlimitedTokens reports whether the token balance is the unlimited sentinel
func (u User) HasUnlimitedTokens() bool {
	return u.Tokens >= UnlimitedTokens
}

// TierRank orders tiers so upgrades and downgrades can be told apart.
func TierRank(tier string) int {
	switch tier {
	case TierPro:
		return 3
	case TierPremium:
		return 2
	case TierFree:
		return 1
	default:
		return 0
	}
}
