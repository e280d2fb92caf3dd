package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/vapeshop/internal/config"
	"github.com/example/vapeshop/internal/database"
	"github.com/example/vapeshop/internal/models"
	"github.com/example/vapeshop/internal/repository"
)

type testEnv struct {
	store        *repository.GormStore
	ledger       *Ledger
	levels       *LevelService
	achievements *AchievementService
	referrals    *ReferralService
	directory    *Directory
	checkout     *CheckoutService
	notifier     *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, nil)
}

func newTestEnvWithCache(t *testing.T, cache PointsCache) *testEnv {
	t.Helper()
	conn, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repository.NewGormStore(conn)
	bonus := config.DefaultBonus()
	env := &testEnv{store: store, notifier: &recordingNotifier{}}
	env.ledger = NewLedger(store, bonus)
	env.levels = NewLevelService(store, cache)
	env.achievements = NewAchievementService(store)
	env.referrals = NewReferralService(store, env.ledger, env.achievements, env.levels, bonus, "https://vape.example")
	env.directory = NewDirectory(store, env.referrals)
	env.checkout = NewCheckoutService(store, env.ledger, env.referrals, env.achievements, env.levels, StubGateway{}, env.notifier)
	return env
}

func (e *testEnv) register(t *testing.T, email, code string) *models.User {
	t.Helper()
	user, created, err := e.directory.CreateUser(context.Background(), NewUser{Email: email, Name: email, ReferralCode: code})
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func (e *testEnv) user(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	user, err := e.store.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

// placeAndComplete checks out a single-line cash order and completes it.
func (e *testEnv) placeAndComplete(t *testing.T, userID uuid.UUID, price, bonus int64) *models.Order {
	t.Helper()
	ctx := context.Background()
	res, err := e.checkout.PlaceOrder(ctx, userID, CheckoutRequest{
		Items:         []CheckoutItem{{ProductName: "Liquid", Quantity: 1, UnitPrice: price}},
		BonusToUse:    bonus,
		PaymentMethod: PaymentCash,
	})
	require.NoError(t, err)
	order, err := e.checkout.UpdateStatus(ctx, res.Order.ID, models.OrderCompleted)
	require.NoError(t, err)
	return order
}

type recordingNotifier struct {
	mu       sync.Mutex
	orders   []OrderNotification
	statuses []string
}

func (n *recordingNotifier) NotifyNewOrder(_ context.Context, order OrderNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
	return nil
}

func (n *recordingNotifier) NotifyStatusChanged(_ context.Context, number, from, to string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, number+":"+from+"->"+to)
	return nil
}

func (n *recordingNotifier) newOrders() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}
