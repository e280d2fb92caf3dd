// Package repository persists users, the bonus ledger, orders and unlocked
// achievements. Callers depend on the Store interface; GormStore is the
// relational implementation used by the server and the tests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vapeshop/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConflict          = errors.New("record already exists or was modified")
	ErrInsufficientBonus = errors.New("insufficient bonus balance")
)

// StoreError reports a failure of the underlying database, as opposed to a
// missing record or a rejected mutation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err came from the database itself.
func IsUnavailable(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// UserRepository resolves and mutates customer records.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	// UpdateUserFields applies a partial update and reports whether the user exists.
	UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)
	ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error)
	ListReferredUsers(ctx context.Context, inviterID uuid.UUID) ([]models.User, error)
	CountReferrals(ctx context.Context, inviterID uuid.UUID) (int64, error)
	// SetFirstOrderCompleted flips the first-order flag and reports whether
	// this call was the one that flipped it.
	SetFirstOrderCompleted(ctx context.Context, id uuid.UUID) (bool, error)
}

// LedgerRepository owns the bonus balance and its operation log.
type LedgerRepository interface {
	// ApplyBonus adjusts the balance and appends op in one unit. Debits that
	// would take the balance below zero fail with ErrInsufficientBonus.
	ApplyBonus(ctx context.Context, op *models.BonusOperation) (int64, error)
	ListBonusOperations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.BonusOperation, int64, error)
	AllBonusOperations(ctx context.Context, userID uuid.UUID) ([]models.BonusOperation, error)
	// SumCredits totals the user's credits of the given kinds.
	SumCredits(ctx context.Context, userID uuid.UUID, kinds []models.BonusKind) (int64, error)
}

// OrderFilter narrows order listings. Zero values match everything.
type OrderFilter struct {
	UserID *uuid.UUID
	Status models.OrderStatus
	Search string
}

// OrderStats aggregates a user's counted (completed or delivered) orders.
type OrderStats struct {
	Count     int64
	Spent     int64
	MaxOrder  int64
	BonusUsed int64
}

// OrderRepository is the order source the loyalty logic reads from.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, limit, offset int) ([]models.Order, int64, error)
	// UpdateOrderStatus moves an order from one status to another and fails
	// with ErrConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) error
	SetOrderTransactionID(ctx context.Context, id uuid.UUID, transactionID string) error
	UserOrderStats(ctx context.Context, userID uuid.UUID) (OrderStats, error)
	OrderStatusCounts(ctx context.Context) (map[models.OrderStatus]int64, error)
	CountedRevenue(ctx context.Context) (int64, error)
}

// AchievementRepository stores unlocked badges.
type AchievementRepository interface {
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error)
	// UnlockAchievement inserts the record unless it already exists and
	// reports whether it was inserted.
	UnlockAchievement(ctx context.Context, ua *models.UserAchievement) (bool, error)
	TouchAchievementsChecked(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// Store combines every repository with a transaction boundary.
type Store interface {
	UserRepository
	LedgerRepository
	OrderRepository
	AchievementRepository
	// Transaction runs fn against a store bound to a single transaction.
	Transaction(ctx context.Context, fn func(Store) error) error
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrInsufficientBonus), errors.As(err, &se):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return ErrConflict
	}
	return &StoreError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
