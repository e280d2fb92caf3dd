package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/repository"
)

// UserStats is the snapshot that points, levels and achievements are
// derived from. Only completed and delivered orders are counted.
type UserStats struct {
	TotalOrders    int64 `json:"total_orders"`
	TotalSpent     int64 `json:"total_spent"`
	MaxOrderAmount int64 `json:"max_order_amount"`
	BonusesUsed    int64 `json:"bonuses_used"`
	ReferralsCount int64 `json:"referrals_count"`
}

func collectStats(ctx context.Context, store repository.Store, userID uuid.UUID) (UserStats, error) {
	orders, err := store.UserOrderStats(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}
	referrals, err := store.CountReferrals(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{
		TotalOrders:    orders.Count,
		TotalSpent:     orders.Spent,
		MaxOrderAmount: orders.MaxOrder,
		BonusesUsed:    orders.BonusUsed,
		ReferralsCount: referrals,
	}, nil
}
