package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAchievement records a badge unlocked by a user. At most one row exists
// per (user, achievement).
type UserAchievement struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	AchievementID string    `gorm:"size:32;primaryKey" json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
