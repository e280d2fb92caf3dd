package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/models"
	"github.com/example/vapeshop/internal/repository"
)

// ConditionType names the statistic an achievement is measured on.
type ConditionType string

const (
	ConditionFirstOrder        ConditionType = "first_order"
	ConditionReferralsCount    ConditionType = "referrals_count"
	ConditionTotalSpent        ConditionType = "total_spent"
	ConditionOrdersCount       ConditionType = "orders_count"
	ConditionSingleOrderAmount ConditionType = "single_order_amount"
	ConditionBonusesUsed       ConditionType = "bonuses_used"
)

// Achievement is a one-time badge unlocked when a statistic crosses Threshold.
type Achievement struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Condition   ConditionType `json:"condition"`
	Threshold   int64         `json:"threshold"`
}

var achievementTable = []Achievement{
	{ID: "first_purchase", Title: "Перша покупка", Description: "Завершіть перше замовлення", Icon: "🛍", Condition: ConditionFirstOrder, Threshold: 1},
	{ID: "regular_customer", Title: "Постійний клієнт", Description: "5 завершених замовлень", Icon: "⭐", Condition: ConditionOrdersCount, Threshold: 5},
	{ID: "loyal_customer", Title: "Вірний клієнт", Description: "20 завершених замовлень", Icon: "💎", Condition: ConditionOrdersCount, Threshold: 20},
	{ID: "first_friend", Title: "Перший друг", Description: "Запросіть першого друга", Icon: "🤝", Condition: ConditionReferralsCount, Threshold: 1},
	{ID: "influencer", Title: "Інфлюенсер", Description: "Запросіть 5 друзів", Icon: "📣", Condition: ConditionReferralsCount, Threshold: 5},
	{ID: "big_spender", Title: "Щедрий покупець", Description: "Витратьте 5000 грн", Icon: "💰", Condition: ConditionTotalSpent, Threshold: 5000},
	{ID: "vip_client", Title: "VIP клієнт", Description: "Витратьте 20000 грн", Icon: "👑", Condition: ConditionTotalSpent, Threshold: 20000},
	{ID: "big_order", Title: "Велике замовлення", Description: "Замовлення на 2000 грн і більше", Icon: "📦", Condition: ConditionSingleOrderAmount, Threshold: 2000},
	{ID: "bonus_saver", Title: "Бонусний майстер", Description: "Оплатіть бонусами 100 грн", Icon: "🎁", Condition: ConditionBonusesUsed, Threshold: 100},
}

// AllAchievements returns the fixed achievement table.
func AllAchievements() []Achievement {
	out := make([]Achievement, len(achievementTable))
	copy(out, achievementTable)
	return out
}

// Value extracts the statistic the achievement is measured on.
func (a Achievement) Value(stats UserStats) int64 {
	switch a.Condition {
	case ConditionFirstOrder, ConditionOrdersCount:
		return stats.TotalOrders
	case ConditionReferralsCount:
		return stats.ReferralsCount
	case ConditionTotalSpent:
		return stats.TotalSpent
	case ConditionSingleOrderAmount:
		return stats.MaxOrderAmount
	case ConditionBonusesUsed:
		return stats.BonusesUsed
	}
	return 0
}

// Satisfied reports whether stats meet the achievement's threshold.
func (a Achievement) Satisfied(stats UserStats) bool {
	return a.Value(stats) >= a.Threshold
}

// AchievementStatus is an achievement as seen by one user.
type AchievementStatus struct {
	Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Progress   int64      `json:"progress"`
}

// AchievementService evaluates the achievement table against user stats.
type AchievementService struct {
	store repository.Store
}

// NewAchievementService constructs an AchievementService.
func NewAchievementService(store repository.Store) *AchievementService {
	return &AchievementService{store: store}
}

// CheckAndUnlock unlocks every achievement whose condition now holds and
// returns only the ones unlocked by this call.
func (s *AchievementService) CheckAndUnlock(ctx context.Context, userID uuid.UUID) ([]Achievement, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	stats, err := collectStats(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.unlockedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var fresh []Achievement
	for _, a := range achievementTable {
		if _, ok := unlocked[a.ID]; ok || !a.Satisfied(stats) {
			continue
		}
		inserted, err := s.store.UnlockAchievement(ctx, &models.UserAchievement{
			UserID:        userID,
			AchievementID: a.ID,
			UnlockedAt:    now,
		})
		if err != nil {
			return fresh, err
		}
		if inserted {
			log.Printf("[Achievements] user %s unlocked %s", userID, a.ID)
			fresh = append(fresh, a)
		}
	}

	if err := s.store.TouchAchievementsChecked(ctx, userID, now); err != nil {
		return fresh, err
	}
	return fresh, nil
}

// List returns the whole table with the user's unlock state and progress.
func (s *AchievementService) List(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	stats, err := collectStats(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.unlockedSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]AchievementStatus, 0, len(achievementTable))
	for _, a := range achievementTable {
		status := AchievementStatus{Achievement: a, Progress: a.Value(stats)}
		if status.Progress > a.Threshold {
			status.Progress = a.Threshold
		}
		if at, ok := unlocked[a.ID]; ok {
			at := at
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		out = append(out, status)
	}
	return out, nil
}

func (s *AchievementService) unlockedSet(ctx context.Context, userID uuid.UUID) (map[string]time.Time, error) {
	items, err := s.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]time.Time, len(items))
	for _, item := range items {
		set[item.AchievementID] = item.UnlockedAt
	}
	return set, nil
}
