package route

import (
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/features/forms/analytics/controller"
	"triddle_backend/internals/features/forms/analytics/service"
)

// AnalyticsRoutes: base /api/u (AuthJWT), hanya pemilik form.
func AnalyticsRoutes(user fiber.Router, svc *service.AnalyticsService, guard controller.OwnerGuard) {
	ctrl := controller.NewAnalyticsController(svc, guard)

	g := user.Group("/forms/:id/analytics")
	g.Get("/summary", ctrl.Summary)
	g.Get("/completion-rate", ctrl.CompletionRate)
	g.Get("/average-time", ctrl.AverageTime)
	g.Get("/devices", ctrl.Devices)
	g.Get("/timeline", ctrl.Timeline)
	g.Get("/geo", ctrl.Geo)
}
