package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/vapeshop/internal/models"
)

func (s *GormStore) ApplyBonus(ctx context.Context, op *models.BonusOperation) (int64, error) {
	var balance int64
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&models.User{}).Where("id = ?", op.UserID)

		var res *gorm.DB
		if op.Type == models.BonusDebit {
			res = query.Where("bonus_balance >= ?", op.Amount).
				Update("bonus_balance", gorm.Expr("bonus_balance - ?", op.Amount))
		} else {
			res = query.Update("bonus_balance", gorm.Expr("bonus_balance + ?", op.Amount))
		}
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", op.UserID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrInsufficientBonus
		}

		if err := tx.Model(&models.User{}).
			Select("bonus_balance").
			Where("id = ?", op.UserID).
			Scan(&balance).Error; err != nil {
			return err
		}

		if op.ID == uuid.Nil {
			op.ID = uuid.New()
		}
		if op.Kind == "" {
			op.Kind = models.KindManual
		}
		if err := nextOperationDate(tx, op); err != nil {
			return err
		}
		op.BalanceAfter = balance
		return tx.Create(op).Error
	})
	if err != nil {
		return 0, wrap("apply bonus", err)
	}
	return balance, nil
}

// nextOperationDate keeps a user's operation dates strictly increasing at
// microsecond precision, so history sorted by date matches insertion order.
// The balance update above holds the user's row lock.
func nextOperationDate(tx *gorm.DB, op *models.BonusOperation) error {
	if op.Date.IsZero() {
		op.Date = time.Now()
	}
	op.Date = op.Date.Truncate(time.Microsecond)

	var last []models.BonusOperation
	if err := tx.Select("date").
		Where("user_id = ?", op.UserID).
		Order("date desc").
		Limit(1).
		Find(&last).Error; err != nil {
		return err
	}
	if len(last) > 0 && !op.Date.After(last[0].Date) {
		op.Date = last[0].Date.Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return nil
}

func (s *GormStore) ListBonusOperations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.BonusOperation, int64, error) {
	query := s.conn(ctx).Model(&models.BonusOperation{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count bonus operations", err)
	}

	var ops []models.BonusOperation
	if err := query.Order("date desc").
		Limit(limit).Offset(offset).
		Find(&ops).Error; err != nil {
		return nil, 0, wrap("list bonus operations", err)
	}
	return ops, total, nil
}

func (s *GormStore) AllBonusOperations(ctx context.Context, userID uuid.UUID) ([]models.BonusOperation, error) {
	var ops []models.BonusOperation
	if err := s.conn(ctx).Where("user_id = ?", userID).
		Order("date asc").
		Find(&ops).Error; err != nil {
		return nil, wrap("list bonus operations", err)
	}
	return ops, nil
}

func (s *GormStore) SumCredits(ctx context.Context, userID uuid.UUID, kinds []models.BonusKind) (int64, error) {
	if len(kinds) == 0 {
		return 0, nil
	}
	var total int64
	if err := s.conn(ctx).Model(&models.BonusOperation{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND type = ? AND kind IN ?", userID, models.BonusCredit, kinds).
		Scan(&total).Error; err != nil {
		return 0, wrap("sum bonus credits", err)
	}
	return total, nil
}
