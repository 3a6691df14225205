// middlewares/cors.go

package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"triddle_backend/internals/configs"
	"triddle_backend/internals/constants"
)

// CorsMiddleware: origin dari CORS_ALLOW_ORIGINS (dipisah koma).
func CorsMiddleware() fiber.Handler {
	origins := configs.GetList("CORS_ALLOW_ORIGINS", "http://localhost:5173", "http://127.0.0.1:5500")
	wildcard := len(origins) == 1 && origins[0] == "*"

	return cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ", "),
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: strings.Join([]string{
			"Origin", "Content-Type", "Accept", "Authorization",
			constants.HeaderResponseSession, constants.HeaderFormPassword, constants.HeaderRequestID,
		}, ", "),
		ExposeHeaders: strings.Join([]string{
			constants.HeaderResponseSession, constants.HeaderRequestID, "X-Answers-Applied",
		}, ", "),
		// fiber menolak credentials + origin "*"
		AllowCredentials: !wildcard,
	})
}
