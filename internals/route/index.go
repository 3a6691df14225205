// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	analyticsRoute "triddle_backend/internals/features/forms/analytics/route"
	analyticsService "triddle_backend/internals/features/forms/analytics/service"
	formRoute "triddle_backend/internals/features/forms/forms/route"
	formService "triddle_backend/internals/features/forms/forms/service"
	responseRoute "triddle_backend/internals/features/forms/responses/route"
	responseService "triddle_backend/internals/features/forms/responses/service"
	authRoute "triddle_backend/internals/features/users/auth/route"
	authService "triddle_backend/internals/features/users/auth/service"
	authMiddleware "triddle_backend/internals/middlewares/auth"
)

var startTime time.Time

// Services yang sudah dirakit di main.
type Services struct {
	Auth      *authService.AuthService
	Forms     *formService.FormService
	Responses *responseService.ResponseService
	Analytics *analyticsService.AnalyticsService
	Secret    string
	Ping      Pinger
}

func SetupRoutes(app *fiber.App, s Services) {
	startTime = time.Now()

	BaseRoutes(app, s.Ping)

	jwtOpts := authMiddleware.AuthJWTOpts{
		Secret:              s.Secret,
		BlacklistChecker:    s.Auth.IsBlacklisted,
		AllowCookieFallback: true,
	}

	// ===================== GROUPS =====================

	// AUTH → login/register tanpa JWT
	log.Println("[INFO] Setting up AUTH group...")
	api := app.Group("/api")
	authRoute.AuthPublicRoutes(api, s.Auth)

	// PUBLIC → JWT opsional (owner boleh bypass private/password)
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public", authMiddleware.OptionalAuthJWT(jwtOpts))

	// PRIVATE (USER) → JWT wajib
	log.Println("[INFO] Setting up PRIVATE group...")
	user := app.Group("/api/u", authMiddleware.AuthJWT(jwtOpts))

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Auth routes...")
	authRoute.AuthUserRoutes(user, s.Auth)

	log.Println("[INFO] Mounting Form routes...")
	formRoute.FormPublicRoutes(public, s.Forms)
	formRoute.FormUserRoutes(user, s.Forms)

	log.Println("[INFO] Mounting Response routes...")
	responseRoute.ResponsePublicRoutes(public, s.Responses, s.Forms)
	responseRoute.ResponseOwnerRoutes(user, s.Responses, s.Forms)

	log.Println("[INFO] Mounting Analytics routes...")
	analyticsRoute.AnalyticsRoutes(user, s.Analytics, s.Forms)
}
