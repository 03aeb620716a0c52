package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/hide-yama/kireiapp/internal/config"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/routes"
	"github.com/hide-yama/kireiapp/internal/services"
	"github.com/hide-yama/kireiapp/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := storage.Init(cfg); err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}

	if err := services.InitPush(cfg.FCMServiceAccount); err != nil {
		log.Printf("Push notifications disabled: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "kireiapp",
		BodyLimit: 25 * 1024 * 1024, // multipart post with four 5MB images
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Static("/uploads", cfg.UploadDir)

	routes.Setup(app)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
