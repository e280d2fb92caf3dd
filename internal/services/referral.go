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

const (
	reasonWelcome          = "Вітальний бонус за реєстрацію за запрошенням"
	reasonInvitedFriend    = "Бонус за запрошеного друга %s"
	reasonFriendFirstOrder = "Бонус за перше замовлення друга %s"
)

// ReferralStats summarizes a user's invitations.
type ReferralStats struct {
	ReferralCode   string `json:"referral_code"`
	ReferralLink   string `json:"referral_link"`
	Invited        int    `json:"invited"`
	InvitedOrdered int    `json:"invited_ordered"`
	Earned         int64  `json:"earned"`
}

// ReferralService links invited customers to their inviter and pays out the
// signup and first-order bonuses.
type ReferralService struct {
	store         repository.Store
	ledger        *Ledger
	achievements  *AchievementService
	levels        *LevelService
	bonus         config.BonusConfig
	storefrontURL string
}

// NewReferralService constructs a ReferralService.
func NewReferralService(store repository.Store, ledger *Ledger, achievements *AchievementService, levels *LevelService, bonus config.BonusConfig, storefrontURL string) *ReferralService {
	return &ReferralService{
		store:         store,
		ledger:        ledger,
		achievements:  achievements,
		levels:        levels,
		bonus:         bonus,
		storefrontURL: storefrontURL,
	}
}

// attribute credits the welcome bonus to the new user and the signup bonus to
// the inviter. It must run inside the registration transaction.
func (s *ReferralService) attribute(ctx context.Context, tx repository.Store, user, inviter *models.User) error {
	if user.ID == inviter.ID {
		return ErrSelfReferral
	}
	if s.bonus.Welcome > 0 {
		if _, err := s.ledger.credit(ctx, tx, models.KindWelcome, user.ID, s.bonus.Welcome, reasonWelcome, nil); err != nil {
			return err
		}
	}
	if s.bonus.Inviter > 0 {
		if _, err := s.ledger.credit(ctx, tx, models.KindReferralSignup, inviter.ID, s.bonus.Inviter, fmt.Sprintf(reasonInvitedFriend, user.Email), nil); err != nil {
			return err
		}
	}
	return nil
}

// MarkFirstOrderCompleted flags the user's first qualifying order and pays the
// inviter. Only the call that flips the flag pays; later calls return false.
func (s *ReferralService) MarkFirstOrderCompleted(ctx context.Context, userID uuid.UUID) (bool, error) {
	var inviterID *uuid.UUID
	var flipped bool
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		flipped, inviterID, err = s.markFirstOrder(ctx, tx, userID)
		return err
	})
	if err != nil {
		return false, err
	}
	if flipped && inviterID != nil {
		s.afterInviterCredit(ctx, *inviterID)
	}
	return flipped, nil
}

// markFirstOrder is the transactional part of MarkFirstOrderCompleted. It
// returns the inviter that was credited, if any.
func (s *ReferralService) markFirstOrder(ctx context.Context, tx repository.Store, userID uuid.UUID) (bool, *uuid.UUID, error) {
	user, err := tx.GetUserByID(ctx, userID)
	if err != nil {
		return false, nil, err
	}
	if user.FirstOrderCompleted {
		return false, nil, nil
	}

	flipped, err := tx.SetFirstOrderCompleted(ctx, userID)
	if err != nil || !flipped {
		return false, nil, err
	}

	if user.ReferredBy == nil || *user.ReferredBy == user.ID || s.bonus.FirstOrder <= 0 {
		return true, nil, nil
	}

	if _, err := s.ledger.credit(ctx, tx, models.KindReferralFirstOrder, *user.ReferredBy, s.bonus.FirstOrder, fmt.Sprintf(reasonFriendFirstOrder, user.Email), nil); err != nil {
		return false, nil, err
	}
	log.Printf("[Referral] inviter %s credited for first order of %s", *user.ReferredBy, userID)
	return true, user.ReferredBy, nil
}

// afterInviterCredit runs the follow-ups of a referral payout. Failures are
// logged since the payout itself is already committed.
func (s *ReferralService) afterInviterCredit(ctx context.Context, inviterID uuid.UUID) {
	if _, err := s.achievements.CheckAndUnlock(ctx, inviterID); err != nil {
		log.Printf("[Referral] achievement check for %s failed: %v", inviterID, err)
	}
	if _, err := s.levels.RefreshLevel(ctx, inviterID); err != nil {
		log.Printf("[Referral] level refresh for %s failed: %v", inviterID, err)
	}
}

// Stats returns the user's invitation summary and shareable link.
func (s *ReferralService) Stats(ctx context.Context, userID uuid.UUID) (*ReferralStats, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	invited, err := s.store.ListReferredUsers(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &ReferralStats{
		ReferralCode: user.ReferralCode,
		ReferralLink: s.Link(user.ReferralCode),
		Invited:      len(invited),
	}
	for _, friend := range invited {
		if friend.FirstOrderCompleted {
			stats.InvitedOrdered++
		}
	}
	stats.Earned, err = s.store.SumCredits(ctx, userID, models.ReferralKinds)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Link builds the storefront URL that carries a referral code.
func (s *ReferralService) Link(code string) string {
	return s.storefrontURL + "/?ref=" + code
}

// ReferredUsers lists the users invited by userID.
func (s *ReferralService) ReferredUsers(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	return s.store.ListReferredUsers(ctx, userID)
}
