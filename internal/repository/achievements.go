package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/example/vapeshop/internal/models"
)

func (s *GormStore) ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	var items []models.UserAchievement
	if err := s.conn(ctx).Where("user_id = ?", userID).
		Order("unlocked_at asc").
		Find(&items).Error; err != nil {
		return nil, wrap("list achievements", err)
	}
	return items, nil
}

func (s *GormStore) UnlockAchievement(ctx context.Context, ua *models.UserAchievement) (bool, error) {
	if ua.UnlockedAt.IsZero() {
		ua.UnlockedAt = time.Now()
	}
	res := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ua)
	if res.Error != nil {
		return false, wrap("unlock achievement", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) TouchAchievementsChecked(ctx context.Context, userID uuid.UUID, at time.Time) error {
	err := s.conn(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("achievements_checked_at", at).Error
	return wrap("touch achievements checked", err)
}
