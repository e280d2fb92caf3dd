package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vapeshop/internal/database"
	"github.com/example/vapeshop/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	conn, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormStore(conn)
}

var codeSeq int

func seedUser(t *testing.T, s *GormStore, email string, balance int64) *models.User {
	t.Helper()
	codeSeq++
	user := &models.User{
		Email:        email,
		Name:         "Test " + email,
		ReferralCode: fmt.Sprintf("TST%05d", codeSeq),
		BonusBalance: balance,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestUserLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "Olena@Example.com", 0)

	assert.Equal(t, "olena@example.com", user.Email)

	got, err := s.GetUserByEmail(ctx, "OLENA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = s.GetUserByReferralCode(ctx, " "+user.ReferralCode+" ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	seedUser(t, s, "dup@example.com", 0)

	err := s.CreateUser(context.Background(), &models.User{Email: "DUP@example.com", ReferralCode: "ZZZZZZZZ"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateUserFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "upd@example.com", 0)

	ok, err := s.UpdateUserFields(ctx, user.ID, map[string]interface{}{"city": "Київ"})
	require.NoError(t, err)
	assert.True(t, ok)

	// same value again: no rows changed but the user exists
	ok, err = s.UpdateUserFields(ctx, user.ID, map[string]interface{}{"city": "Київ"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateUserFields(ctx, uuid.New(), map[string]interface{}{"city": "Львів"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Київ", got.City)
}

func TestApplyBonus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "bonus@example.com", 0)

	balance, err := s.ApplyBonus(ctx, &models.BonusOperation{UserID: user.ID, Amount: 30, Type: models.BonusCredit, Reason: "gift"})
	require.NoError(t, err)
	assert.EqualValues(t, 30, balance)

	balance, err = s.ApplyBonus(ctx, &models.BonusOperation{UserID: user.ID, Amount: 12, Type: models.BonusDebit, Reason: "order"})
	require.NoError(t, err)
	assert.EqualValues(t, 18, balance)

	_, err = s.ApplyBonus(ctx, &models.BonusOperation{UserID: user.ID, Amount: 19, Type: models.BonusDebit, Reason: "order"})
	assert.ErrorIs(t, err, ErrInsufficientBonus)

	_, err = s.ApplyBonus(ctx, &models.BonusOperation{UserID: uuid.New(), Amount: 1, Type: models.BonusCredit})
	assert.ErrorIs(t, err, ErrNotFound)

	ops, total, err := s.ListBonusOperations(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, ops, 2)
	assert.Equal(t, models.BonusDebit, ops[0].Type)
	assert.EqualValues(t, 18, ops[0].BalanceAfter)

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 18, got.BonusBalance)
}

func TestBonusHistoryFollowsInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "order@example.com", 0)

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := s.Transaction(ctx, func(tx Store) error {
		for _, reason := range []string{"first", "second", "third"} {
			op := &models.BonusOperation{UserID: user.ID, Amount: 5, Type: models.BonusCredit, Reason: reason, Date: stamp}
			if _, err := tx.ApplyBonus(ctx, op); err != nil {
				return err
			}
		}
		// an older timestamp still lands after what is already logged
		_, err := tx.ApplyBonus(ctx, &models.BonusOperation{UserID: user.ID, Amount: 5, Type: models.BonusCredit, Reason: "fourth", Date: stamp.Add(-time.Hour)})
		return err
	})
	require.NoError(t, err)

	ops, _, err := s.ListBonusOperations(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, ops, 4)
	reasons := make([]string, len(ops))
	for i, op := range ops {
		reasons[i] = op.Reason
		if i > 0 {
			assert.True(t, ops[i-1].Date.After(op.Date), "dates must strictly decrease")
		}
	}
	assert.Equal(t, []string{"fourth", "third", "second", "first"}, reasons)
	assert.EqualValues(t, 20, ops[0].BalanceAfter)
	assert.EqualValues(t, 5, ops[3].BalanceAfter)
}

func TestSumCredits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "sum@example.com", 0)

	for _, op := range []models.BonusOperation{
		{Amount: 10, Type: models.BonusCredit, Kind: models.KindReferralSignup},
		{Amount: 25, Type: models.BonusCredit, Kind: models.KindReferralFirstOrder},
		{Amount: 7, Type: models.BonusCredit, Kind: models.KindWelcome},
		{Amount: 3, Type: models.BonusDebit, Kind: models.KindOrderPayment},
		{Amount: 4, Type: models.BonusCredit},
	} {
		op := op
		op.UserID = user.ID
		_, err := s.ApplyBonus(ctx, &op)
		require.NoError(t, err)
	}

	sum, err := s.SumCredits(ctx, user.ID, models.ReferralKinds)
	require.NoError(t, err)
	assert.EqualValues(t, 35, sum)

	sum, err = s.SumCredits(ctx, user.ID, []models.BonusKind{models.KindManual})
	require.NoError(t, err)
	assert.EqualValues(t, 4, sum)

	sum, err = s.SumCredits(ctx, uuid.New(), models.ReferralKinds)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestApplyBonusConcurrentDebitsNeverOverspend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "race@example.com", 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyBonus(ctx, &models.BonusOperation{UserID: user.ID, Amount: 10, Type: models.BonusDebit})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientBonus) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.BonusBalance)
}

func TestTransactionRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "tx@example.com", 0)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx Store) error {
		if _, err := tx.ApplyBonus(ctx, &models.BonusOperation{UserID: user.ID, Amount: 10, Type: models.BonusCredit}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.BonusBalance)

	ops, err := s.AllBonusOperations(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestSetFirstOrderCompletedOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "first@example.com", 0)

	flipped, err := s.SetFirstOrderCompleted(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = s.SetFirstOrderCompleted(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestReferrals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	inviter := seedUser(t, s, "inviter@example.com", 0)

	for i := 0; i < 3; i++ {
		codeSeq++
		require.NoError(t, s.CreateUser(ctx, &models.User{
			Email:        fmt.Sprintf("friend%d@example.com", i),
			ReferralCode: fmt.Sprintf("FRN%05d", codeSeq),
			ReferredBy:   &inviter.ID,
		}))
	}

	count, err := s.CountReferrals(ctx, inviter.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	friends, err := s.ListReferredUsers(ctx, inviter.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 3)
}

func TestOrderStatsAndStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "orders@example.com", 0)

	orders := []models.Order{
		{UserID: user.ID, OrderNumber: "#1", Status: models.OrderCompleted, Total: 200, BonusUsed: 5},
		{UserID: user.ID, OrderNumber: "#2", Status: models.OrderDelivered, Total: 1000},
		{UserID: user.ID, OrderNumber: "#3", Status: models.OrderPending, Total: 5000},
		{UserID: user.ID, OrderNumber: "#4", Status: models.OrderCancelled, Total: 700, BonusUsed: 70},
	}
	for i := range orders {
		require.NoError(t, s.CreateOrder(ctx, &orders[i]))
	}

	stats, err := s.UserOrderStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStats{Count: 2, Spent: 1200, MaxOrder: 1000, BonusUsed: 5}, stats)

	require.NoError(t, s.UpdateOrderStatus(ctx, orders[2].ID, models.OrderPending, models.OrderPaid))
	err = s.UpdateOrderStatus(ctx, orders[2].ID, models.OrderPending, models.OrderPaid)
	assert.ErrorIs(t, err, ErrConflict)

	counts, err := s.OrderStatusCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[models.OrderPaid])
	assert.EqualValues(t, 0, counts[models.OrderPending])

	revenue, err := s.CountedRevenue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1200, revenue)

	list, total, err := s.ListOrders(ctx, OrderFilter{UserID: &user.ID, Status: models.OrderCompleted}, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "#1", list[0].OrderNumber)
}

func TestUnlockAchievementIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "ach@example.com", 0)

	inserted, err := s.UnlockAchievement(ctx, &models.UserAchievement{UserID: user.ID, AchievementID: "first_purchase"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.UnlockAchievement(ctx, &models.UserAchievement{UserID: user.ID, AchievementID: "first_purchase"})
	require.NoError(t, err)
	assert.False(t, inserted)

	items, err := s.ListAchievements(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	now := time.Now()
	require.NoError(t, s.TouchAchievementsChecked(ctx, user.ID, now))
	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.AchievementsCheckedAt)
}

func TestWrapClassifiesErrors(t *testing.T) {
	assert.Nil(t, wrap("op", nil))
	assert.ErrorIs(t, wrap("op", ErrInsufficientBonus), ErrInsufficientBonus)

	err := wrap("op", errors.New("disk I/O error"))
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "store op")

	assert.ErrorIs(t, wrap("op", errors.New("UNIQUE constraint failed: users.email")), ErrConflict)
}
