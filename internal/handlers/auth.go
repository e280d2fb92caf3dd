package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vapeshop/internal/config"
	"github.com/example/vapeshop/internal/models"
	"github.com/example/vapeshop/internal/services"
	"github.com/example/vapeshop/internal/utils"
)

const minPasswordLength = 6

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	directory *services.Directory
	cfg       *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(directory *services.Directory, cfg *config.Config) *AuthHandler {
	return &AuthHandler{directory: directory, cfg: cfg}
}

type registerRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

// Register creates a new user account, optionally attributed to an inviter.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if len(req.Password) < minPasswordLength {
		return fiber.NewError(fiber.StatusBadRequest, "password is too short")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return fiber.NewError(fiber.StatusBadRequest, "password is too long")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user, created, err := h.directory.CreateUser(c.UserContext(), services.NewUser{
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
		PasswordHash: passwordHash,
		IsAdmin:      h.cfg.IsAdminEmail(req.Email),
	})
	if err != nil {
		return err
	}
	if !created {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.directory.GetUserByEmail(c.UserContext(), req.Email)
	if err != nil || !canLogin(user, req.Password) {
		if err != nil && !isNotFound(err) {
			return err
		}
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func canLogin(user *models.User, password string) bool {
	return user.PasswordHash != "" && utils.CheckPassword(user.PasswordHash, password)
}
