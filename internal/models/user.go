package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered storefront customer.
type User struct {
	BaseModel
	Email                 string     `gorm:"uniqueIndex;not null" json:"email"`
	Name                  string     `json:"name"`
	Phone                 string     `json:"phone,omitempty"`
	City                  string     `json:"city,omitempty"`
	Address               string     `json:"address,omitempty"`
	PasswordHash          string     `json:"-"`
	ReferralCode          string     `gorm:"size:8;uniqueIndex;not null" json:"referral_code"`
	ReferredBy            *uuid.UUID `gorm:"type:uuid;index" json:"referred_by,omitempty"`
	BonusBalance          int64      `gorm:"not null;default:0" json:"bonus_balance"`
	FirstOrderCompleted   bool       `gorm:"not null;default:false" json:"first_order_completed"`
	Level                 string     `json:"level,omitempty"`
	DeliveryMethod        string     `json:"delivery_method,omitempty"`
	PaymentMethod         string     `json:"payment_method,omitempty"`
	AchievementsCheckedAt *time.Time `json:"achievements_checked_at,omitempty"`
	IsAdmin               bool       `gorm:"not null;default:false" json:"is_admin"`
}
