package routes

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger: cek koneksi DB untuk /health.
type Pinger func(ctx context.Context) error

func BaseRoutes(app *fiber.App, ping Pinger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Triddle API 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if ping == nil || ping(c.UserContext()) != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    os.Getenv("RAILWAY_ENVIRONMENT"),
		})
	})
}
