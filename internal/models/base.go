// Package models holds the persisted records of the storefront: customers,
// their bonus ledger, orders and unlocked achievements.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all mutable tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// All lists every model that participates in schema migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&BonusOperation{},
		&Order{},
		&OrderItem{},
		&UserAchievement{},
	}
}
