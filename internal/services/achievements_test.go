package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vapeshop/internal/repository"
)

func achievementIDs(list []Achievement) []string {
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestAchievementTable(t *testing.T) {
	all := AllAchievements()
	require.Len(t, all, 9)
	seen := map[string]bool{}
	for _, a := range all {
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
		assert.Positive(t, a.Threshold)
	}
}

func TestAchievementSatisfied(t *testing.T) {
	stats := UserStats{TotalOrders: 5, TotalSpent: 4999, MaxOrderAmount: 2000, BonusesUsed: 99, ReferralsCount: 1}
	got := map[string]bool{}
	for _, a := range AllAchievements() {
		got[a.ID] = a.Satisfied(stats)
	}
	assert.Equal(t, map[string]bool{
		"first_purchase":   true,
		"regular_customer": true,
		"loyal_customer":   false,
		"first_friend":     true,
		"influencer":       false,
		"big_spender":      false,
		"vip_client":       false,
		"big_order":        true,
		"bonus_saver":      false,
	}, got)
}

func TestCheckAndUnlockIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "badges@example.com", "")

	// Completing an order runs the check itself.
	env.placeAndComplete(t, user.ID, 2500, 0)

	list, err := env.achievements.List(ctx, user.ID)
	require.NoError(t, err)
	unlocked := map[string]bool{}
	for _, a := range list {
		unlocked[a.ID] = a.Unlocked
	}
	assert.True(t, unlocked["first_purchase"])
	assert.True(t, unlocked["big_order"])
	assert.False(t, unlocked["big_spender"])

	fresh, err := env.achievements.CheckAndUnlock(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	checkedAt := env.user(t, user.ID).AchievementsCheckedAt
	assert.NotNil(t, checkedAt)
}

func TestCheckAndUnlockReturnsOnlyNew(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "fresh@example.com", "")

	fresh, err := env.achievements.CheckAndUnlock(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	// Count an order directly so no automatic check runs.
	res, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		Items: []CheckoutItem{{ProductName: "Liquid", Quantity: 2, UnitPrice: 3000}},
	})
	require.NoError(t, err)
	require.NoError(t, env.store.UpdateOrderStatus(ctx, res.Order.ID, "pending", "completed"))

	fresh, err = env.achievements.CheckAndUnlock(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first_purchase", "big_spender", "big_order"}, achievementIDs(fresh))

	fresh, err = env.achievements.CheckAndUnlock(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestAchievementProgressIsCapped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "progress@example.com", "")
	env.placeAndComplete(t, user.ID, 3000, 0)

	list, err := env.achievements.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 9)
	for _, a := range list {
		assert.LessOrEqual(t, a.Progress, a.Threshold, a.ID)
		if a.ID == "big_spender" {
			assert.Equal(t, int64(3000), a.Progress)
		}
	}
}

func TestAchievementsUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.achievements.CheckAndUnlock(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
