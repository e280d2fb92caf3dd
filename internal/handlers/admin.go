package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/vapeshop/internal/repository"
	"github.com/example/vapeshop/internal/services"
	"github.com/example/vapeshop/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	store     repository.Store
	directory *services.Directory
	ledger    *services.Ledger
	checkout  *services.CheckoutService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(store repository.Store, directory *services.Directory, ledger *services.Ledger, checkout *services.CheckoutService) *AdminHandler {
	return &AdminHandler{store: store, directory: directory, ledger: ledger, checkout: checkout}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	_, totalUsers, err := h.directory.ListUsers(ctx, "", 1, 0)
	if err != nil {
		return err
	}

	ordersByStatus, err := h.store.OrderStatusCounts(ctx)
	if err != nil {
		return err
	}
	var totalOrders int64
	for _, n := range ordersByStatus {
		totalOrders += n
	}

	// Only completed and delivered orders count as revenue.
	revenue, err := h.store.CountedRevenue(ctx)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_orders":     totalOrders,
			"total_revenue":    revenue,
			"orders_by_status": ordersByStatus,
		},
	})
}

// ListAllOrders returns all orders with pagination and filtering.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := repository.OrderFilter{Search: c.Query("search")}
	if status := c.Query("status"); status != "" {
		parsed, ok := services.ParseOrderStatus(status)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		filter.Status = parsed
	}

	orders, total, err := h.store.ListOrders(c.UserContext(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return paginated(c, orders, pg, total)
}

// ListAllUsers returns registered users with pagination and search.
func (h *AdminHandler) ListAllUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	users, total, err := h.directory.ListUsers(c.UserContext(), c.Query("search"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return paginated(c, users, pg, total)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order through its lifecycle.
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	status, ok := services.ParseOrderStatus(req.Status)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid status")
	}

	order, err := h.checkout.UpdateStatus(c.UserContext(), orderID, status)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type adjustBonusRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// AdjustBonus grants (positive amount) or deducts (negative amount) bonuses.
func (h *AdminHandler) AdjustBonus(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req adjustBonusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Reason == "" {
		req.Reason = "Коригування адміністратором"
	}

	var balance int64
	switch {
	case req.Amount > 0:
		balance, err = h.ledger.AddBonus(c.UserContext(), userID, req.Amount, req.Reason)
	case req.Amount < 0:
		balance, err = h.ledger.DeductBonus(c.UserContext(), userID, -req.Amount, req.Reason)
	default:
		err = services.ErrInvalidAmount
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user_id":       userID,
			"bonus_balance": balance,
		},
	})
}

// Reconcile replays a user's bonus log against the stored balance.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	rec, err := h.ledger.Reconcile(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": rec})
}

// ListUserOperations returns any user's bonus history.
func (h *AdminHandler) ListUserOperations(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	pg := utils.ParsePagination(c)
	ops, total, err := h.ledger.History(c.UserContext(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return paginated(c, ops, pg, total)
}
