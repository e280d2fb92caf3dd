package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/vapeshop/internal/config"
	"github.com/example/vapeshop/internal/handlers"
	"github.com/example/vapeshop/internal/middleware"
	"github.com/example/vapeshop/internal/repository"
	"github.com/example/vapeshop/internal/services"
)

// Register wires up all HTTP routes. cache and notifier may be nil.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, cache services.PointsCache, notifier services.OrderNotifier) {
	store := repository.NewGormStore(db)

	ledger := services.NewLedger(store, cfg.Bonus)
	levels := services.NewLevelService(store, cache)
	achievements := services.NewAchievementService(store)
	referrals := services.NewReferralService(store, ledger, achievements, levels, cfg.Bonus, cfg.StorefrontURL)
	directory := services.NewDirectory(store, referrals)
	checkout := services.NewCheckoutService(store, ledger, referrals, achievements, levels, services.StubGateway{}, notifier)

	authHandler := handlers.NewAuthHandler(directory, cfg)
	profileHandler := handlers.NewProfileHandler(directory, ledger, levels, achievements, referrals)
	orderHandler := handlers.NewOrderHandler(checkout, store)
	adminHandler := handlers.NewAdminHandler(store, directory, ledger, checkout)

	app.Get("/health", handlers.Health(db))

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/bonus-limit", orderHandler.BonusLimit)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/bonus", profileHandler.ListBonusOperations)
	protected.Get("/profile/level", profileHandler.GetLevel)
	protected.Get("/profile/achievements", profileHandler.ListAchievements)
	protected.Post("/profile/achievements/check", profileHandler.CheckAchievements)
	protected.Get("/profile/referrals", profileHandler.GetReferrals)

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminMiddleware(directory))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Get("/users/:id/bonus", adminHandler.ListUserOperations)
	admin.Post("/users/:id/bonus", adminHandler.AdjustBonus)
	admin.Get("/users/:id/reconcile", adminHandler.Reconcile)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
}
