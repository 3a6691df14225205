package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/configs"
	"triddle_backend/internals/middlewares/logger"
)

// SetupMiddlewares: urutan penting, recover paling luar.
func SetupMiddlewares(app *fiber.App) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestContext(configs.GetDuration("REQUEST_TIMEOUT", defaultRequestTimeout)))
	app.Use(logger.LoggerMiddleware())
	app.Use(CorsMiddleware())
	app.Use(GlobalRateLimiter())
}
