package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/example/vapeshop/internal/models"
)

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	return wrap("create user", s.conn(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "email = ?", normalizeEmail(email)).Error; err != nil {
		return nil, wrap("get user by email", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := s.conn(ctx).First(&user, "referral_code = ?", code).Error; err != nil {
		return nil, wrap("get user by referral code", err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUserFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = normalizeEmail(email)
	}
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return false, wrap("update user", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Updates reports zero rows when nothing changed, so confirm existence.
	var count int64
	if err := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, wrap("update user", err)
	}
	return count > 0, nil
}

func (s *GormStore) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, int64, error) {
	query := s.conn(ctx).Model(&models.User{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR email LIKE ? OR phone LIKE ? OR referral_code = ?",
			like, like, like, strings.ToUpper(search),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count users", err)
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, 0, wrap("list users", err)
	}
	return users, total, nil
}

func (s *GormStore) ListReferredUsers(ctx context.Context, inviterID uuid.UUID) ([]models.User, error) {
	var users []models.User
	if err := s.conn(ctx).Where("referred_by = ?", inviterID).
		Order("created_at desc").
		Find(&users).Error; err != nil {
		return nil, wrap("list referred users", err)
	}
	return users, nil
}

func (s *GormStore) CountReferrals(ctx context.Context, inviterID uuid.UUID) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.User{}).Where("referred_by = ?", inviterID).Count(&count).Error
	return count, wrap("count referrals", err)
}

func (s *GormStore) SetFirstOrderCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.conn(ctx).Model(&models.User{}).
		Where("id = ? AND first_order_completed = ?", id, false).
		Update("first_order_completed", true)
	if res.Error != nil {
		return false, wrap("set first order completed", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
