// file: internals/features/users/auth/route/auth_route.go
package route

import (
	"github.com/gofiber/fiber/v2"

	controller "triddle_backend/internals/features/users/auth/controller"
	"triddle_backend/internals/features/users/auth/service"
	rateLimiter "triddle_backend/internals/middlewares"
)

// AuthPublicRoutes: base /api/auth
func AuthPublicRoutes(app fiber.Router, svc *service.AuthService) {
	ctrl := controller.NewAuthController(svc)

	baseAuth := app.Group("/auth")
	baseAuth.Post("/login", rateLimiter.LoginRateLimiter(), ctrl.Login)
	baseAuth.Post("/login-google", rateLimiter.LoginRateLimiter(), ctrl.LoginGoogle)
	baseAuth.Post("/register", rateLimiter.RegisterRateLimiter(), ctrl.Register)
}

// AuthUserRoutes: base /api/u/auth (sudah lewat AuthJWT)
func AuthUserRoutes(user fiber.Router, svc *service.AuthService) {
	ctrl := controller.NewAuthController(svc)

	protectedAuth := user.Group("/auth")
	protectedAuth.Post("/logout", ctrl.Logout)
	protectedAuth.Get("/me", ctrl.Me)
	protectedAuth.Post("/change-password", ctrl.ChangePassword)
}
