package models

import (
	"time"

	"github.com/google/uuid"
)

// BonusOperationType distinguishes ledger credits from debits.
type BonusOperationType string

const (
	BonusCredit BonusOperationType = "credit"
	BonusDebit  BonusOperationType = "debit"
)

// BonusKind records what caused an operation.
type BonusKind string

const (
	KindManual             BonusKind = "manual"
	KindWelcome            BonusKind = "welcome"
	KindReferralSignup     BonusKind = "referral_signup"
	KindReferralFirstOrder BonusKind = "referral_first_order"
	KindOrderPayment       BonusKind = "order_payment"
	KindOrderRefund        BonusKind = "order_refund"
)

// ReferralKinds are the credits paid to an inviter for their friends.
var ReferralKinds = []BonusKind{KindReferralSignup, KindReferralFirstOrder}

// BonusOperation is an append-only bonus ledger entry. Amount is always
// positive; Type carries the sign.
type BonusOperation struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID          `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount       int64              `gorm:"not null" json:"amount"`
	Type         BonusOperationType `gorm:"size:16;not null" json:"type"`
	Kind         BonusKind          `gorm:"size:32;index;not null;default:'manual'" json:"kind"`
	Reason       string             `json:"reason"`
	OrderID      *uuid.UUID         `gorm:"type:uuid" json:"order_id,omitempty"`
	BalanceAfter int64              `json:"balance_after"`
	Date         time.Time          `gorm:"index;not null" json:"date"`
}

// Signed returns the amount with the sign implied by the operation type.
func (o BonusOperation) Signed() int64 {
	if o.Type == BonusDebit {
		return -o.Amount
	}
	return o.Amount
}
