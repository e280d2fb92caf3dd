package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/config"
	"github.com/example/vapeshop/internal/models"
	"github.com/example/vapeshop/internal/repository"
)

// Ledger credits and debits customer bonus balances. Every change appends an
// immutable BonusOperation.
type Ledger struct {
	store    repository.Store
	maxShare int64
}

// NewLedger constructs a Ledger.
func NewLedger(store repository.Store, bonus config.BonusConfig) *Ledger {
	return &Ledger{store: store, maxShare: bonus.MaxPaymentShare}
}

// AddBonus credits amount to the user and returns the new balance.
func (l *Ledger) AddBonus(ctx context.Context, userID uuid.UUID, amount int64, reason string) (int64, error) {
	return l.credit(ctx, l.store, models.KindManual, userID, amount, reason, nil)
}

// DeductBonus debits amount from the user. It fails with
// repository.ErrInsufficientBonus, leaving the balance and the log untouched,
// when the balance is lower than amount.
func (l *Ledger) DeductBonus(ctx context.Context, userID uuid.UUID, amount int64, reason string) (int64, error) {
	return l.debit(ctx, l.store, models.KindManual, userID, amount, reason, nil)
}

// Refund credits back bonuses spent on an order.
func (l *Ledger) Refund(ctx context.Context, userID uuid.UUID, amount int64, orderID uuid.UUID, reason string) (int64, error) {
	return l.credit(ctx, l.store, models.KindOrderRefund, userID, amount, reason, &orderID)
}

// History returns the user's operations, newest first.
func (l *Ledger) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.BonusOperation, int64, error) {
	return l.store.ListBonusOperations(ctx, userID, limit, offset)
}

// MaxBonusPayment is the largest part of an order total payable with bonuses.
func (l *Ledger) MaxBonusPayment(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return total/100*l.maxShare + total%100*l.maxShare/100
}

// UsableBonus clamps MaxBonusPayment by the available balance.
func (l *Ledger) UsableBonus(total, balance int64) int64 {
	usable := l.MaxBonusPayment(total)
	if balance < usable {
		usable = balance
	}
	if usable < 0 {
		return 0
	}
	return usable
}

// Reconciliation compares a stored balance against a replay of the log.
type Reconciliation struct {
	UserID          uuid.UUID `json:"user_id"`
	StoredBalance   int64     `json:"stored_balance"`
	Credits         int64     `json:"credits"`
	Debits          int64     `json:"debits"`
	ReplayedBalance int64     `json:"replayed_balance"`
	Operations      int       `json:"operations"`
	Consistent      bool      `json:"consistent"`
}

// Reconcile replays the user's operation log.
func (l *Ledger) Reconcile(ctx context.Context, userID uuid.UUID) (*Reconciliation, error) {
	user, err := l.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ops, err := l.store.AllBonusOperations(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec := &Reconciliation{
		UserID:        userID,
		StoredBalance: user.BonusBalance,
		Operations:    len(ops),
	}
	for _, op := range ops {
		if op.Type == models.BonusDebit {
			rec.Debits += op.Amount
		} else {
			rec.Credits += op.Amount
		}
	}
	rec.ReplayedBalance = rec.Credits - rec.Debits
	rec.Consistent = rec.ReplayedBalance == rec.StoredBalance && rec.StoredBalance >= 0
	if !rec.Consistent {
		log.Printf("[Ledger] balance mismatch for %s: stored=%d replayed=%d", userID, rec.StoredBalance, rec.ReplayedBalance)
	}
	return rec, nil
}

func (l *Ledger) credit(ctx context.Context, repo repository.LedgerRepository, kind models.BonusKind, userID uuid.UUID, amount int64, reason string, orderID *uuid.UUID) (int64, error) {
	return l.apply(ctx, repo, models.BonusCredit, kind, userID, amount, reason, orderID)
}

func (l *Ledger) debit(ctx context.Context, repo repository.LedgerRepository, kind models.BonusKind, userID uuid.UUID, amount int64, reason string, orderID *uuid.UUID) (int64, error) {
	return l.apply(ctx, repo, models.BonusDebit, kind, userID, amount, reason, orderID)
}

func (l *Ledger) apply(ctx context.Context, repo repository.LedgerRepository, typ models.BonusOperationType, kind models.BonusKind, userID uuid.UUID, amount int64, reason string, orderID *uuid.UUID) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := repo.ApplyBonus(ctx, &models.BonusOperation{
		UserID:  userID,
		Amount:  amount,
		Type:    typ,
		Kind:    kind,
		Reason:  reason,
		OrderID: orderID,
	})
	if err != nil {
		return 0, fmt.Errorf("bonus %s for %s: %w", typ, userID, err)
	}

	log.Printf("[Ledger] %s %d for user %s (%s), balance %d", typ, amount, userID, reason, balance)
	return balance, nil
}
