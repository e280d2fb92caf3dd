package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vapeshop/internal/services"
	"github.com/example/vapeshop/internal/utils"
)

// ProfileHandler manages the customer's own profile and loyalty views.
type ProfileHandler struct {
	directory    *services.Directory
	ledger       *services.Ledger
	levels       *services.LevelService
	achievements *services.AchievementService
	referrals    *services.ReferralService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(directory *services.Directory, ledger *services.Ledger, levels *services.LevelService, achievements *services.AchievementService, referrals *services.ReferralService) *ProfileHandler {
	return &ProfileHandler{
		directory:    directory,
		ledger:       ledger,
		levels:       levels,
		achievements: achievements,
		referrals:    referrals,
	}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.directory.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

type updateProfileRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	City           *string `json:"city"`
	Address        *string `json:"address"`
	DeliveryMethod *string `json:"delivery_method"`
	PaymentMethod  *string `json:"payment_method"`
}

// UpdateProfile merges the provided fields into the profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ok, err := h.directory.UpdateUser(c.UserContext(), userID, services.UserUpdate{
		Name:           req.Name,
		Phone:          req.Phone,
		City:           req.City,
		Address:        req.Address,
		DeliveryMethod: req.DeliveryMethod,
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// ListBonusOperations returns the balance and the bonus history, newest first.
func (h *ProfileHandler) ListBonusOperations(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.directory.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	ops, total, err := h.ledger.History(c.UserContext(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"balance": user.BonusBalance,
		"data":    ops,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetLevel returns points, tier progress and the tier table.
func (h *ProfileHandler) GetLevel(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	summary, err := h.levels.Summary(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summary,
		"levels":  services.Levels(),
	})
}

// ListAchievements returns every achievement with the user's progress.
func (h *ProfileHandler) ListAchievements(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	list, err := h.achievements.List(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": list})
}

// CheckAchievements evaluates the table and returns what was just unlocked.
func (h *ProfileHandler) CheckAchievements(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	fresh, err := h.achievements.CheckAndUnlock(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if fresh == nil {
		fresh = []services.Achievement{}
	}

	return c.JSON(fiber.Map{"success": true, "data": fresh})
}

type referredFriend struct {
	Name                string    `json:"name"`
	FirstOrderCompleted bool      `json:"first_order_completed"`
	JoinedAt            time.Time `json:"joined_at"`
}

// GetReferrals returns the referral code, link, stats and invited friends.
func (h *ProfileHandler) GetReferrals(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	stats, err := h.referrals.Stats(c.UserContext(), userID)
	if err != nil {
		return err
	}

	invited, err := h.referrals.ReferredUsers(c.UserContext(), userID)
	if err != nil {
		return err
	}

	friends := make([]referredFriend, 0, len(invited))
	for _, u := range invited {
		friends = append(friends, referredFriend{
			Name:                u.Name,
			FirstOrderCompleted: u.FirstOrderCompleted,
			JoinedAt:            u.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
		"friends": friends,
	})
}
