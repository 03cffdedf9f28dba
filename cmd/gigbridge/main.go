package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gigbridge/gigbridge/app/repository"
	"github.com/gigbridge/gigbridge/internal/pkg/cache"
	"github.com/gigbridge/gigbridge/internal/pkg/database"
	"github.com/gigbridge/gigbridge/internal/pkg/env"
	"github.com/gigbridge/gigbridge/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName:   "GigBridge",
		BodyLimit: 1 * 1024 * 1024,
	})
	app.Use(recover.New(), logger.New())

	// Metrics dashboard, guarded for operators only
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", ""),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
