package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vapeshop/internal/repository"
	"github.com/example/vapeshop/internal/services"
	"github.com/example/vapeshop/internal/utils"
)

// OrderHandler manages customer order endpoints.
type OrderHandler struct {
	checkout *services.CheckoutService
	orders   repository.OrderRepository
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(checkout *services.CheckoutService, orders repository.OrderRepository) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders}
}

type paymentDetailsRequest struct {
	CardToken string `json:"card_token"`
}

type createOrderRequest struct {
	DeliveryMethod string                  `json:"delivery_method"`
	PaymentMethod  string                  `json:"payment_method"`
	PaymentDetails paymentDetailsRequest   `json:"payment_details"`
	Currency       string                  `json:"currency"`
	Products       []services.CheckoutItem `json:"products"`
	BonusAmount    int64                   `json:"bonus_amount"`
	City           string                  `json:"city"`
	Address        string                  `json:"address"`
	Notes          string                  `json:"notes"`
}

// CreateOrder checks out the cart, spending up to the allowed share in bonuses.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.checkout.PlaceOrder(c.UserContext(), userID, services.CheckoutRequest{
		Items:          req.Products,
		BonusToUse:     req.BonusAmount,
		PaymentMethod:  req.PaymentMethod,
		DeliveryMethod: req.DeliveryMethod,
		CardToken:      req.PaymentDetails.CardToken,
		City:           req.City,
		Address:        req.Address,
		Notes:          req.Notes,
		Currency:       req.Currency,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":       true,
		"data":          result.Order,
		"bonus_used":    result.BonusUsed,
		"bonus_balance": result.BonusBalance,
	})
}

// ListOrders returns the authenticated user's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	filter := repository.OrderFilter{UserID: &userID}
	if status := c.Query("status"); status != "" {
		parsed, ok := services.ParseOrderStatus(status)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		filter.Status = parsed
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListOrders(c.UserContext(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return paginated(c, orders, pg, total)
}

// GetOrder returns one of the user's orders.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.GetOrder(c.UserContext(), orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return fiber.NewError(fiber.StatusNotFound, "order not found")
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// BonusLimit reports how many bonuses may be spent on an order of ?total=.
func (h *OrderHandler) BonusLimit(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	total, err := strconv.ParseInt(c.Query("total"), 10, 64)
	if err != nil || total < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid total")
	}

	limit, err := h.checkout.BonusLimit(c.UserContext(), userID, total)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total":     total,
			"max_bonus": limit,
		},
	})
}
