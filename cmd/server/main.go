package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/vapeshop/internal/config"
	"github.com/example/vapeshop/internal/database"
	"github.com/example/vapeshop/internal/handlers"
	"github.com/example/vapeshop/internal/routes"
	"github.com/example/vapeshop/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	var cache services.PointsCache
	if cfg.RedisURL != "" {
		client, err := services.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable, points cache disabled: %v", err)
		} else {
			defer client.Close()
			cache = services.NewRedisPointsCache(client, cfg.PointsCacheTTL)
		}
	}

	telegram, err := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	if err != nil {
		log.Fatalf("telegram setup error: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "Vape Shop Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg, cache, telegram)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
