package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vapeshop/internal/repository"
	"github.com/example/vapeshop/internal/services"
)

// ErrorHandler renders every error returned by a handler as
// {"success": false, "error": msg}. Domain errors are mapped to status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code, msg := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, repository.ErrInsufficientBonus):
		return fiber.StatusUnprocessableEntity, "insufficient bonus balance"
	case errors.Is(err, repository.ErrConflict):
		return fiber.StatusConflict, "conflict, please retry"
	case errors.Is(err, services.ErrPaymentDeclined):
		return fiber.StatusPaymentRequired, err.Error()
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case repository.IsUnavailable(err):
		return fiber.StatusServiceUnavailable, "storage unavailable"
	}
	return fiber.StatusInternalServerError, "internal server error"
}
