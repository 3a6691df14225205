package route

import (
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/features/forms/responses/controller"
	"triddle_backend/internals/features/forms/responses/service"
	"triddle_backend/internals/middlewares"
)

// ResponsePublicRoutes: base /api/public (responden, tanpa login).
// Kepemilikan record dibuktikan lewat header X-Response-Session.
func ResponsePublicRoutes(public fiber.Router, svc *service.ResponseService, forms controller.PublicFormResolver) {
	ctrl := controller.NewRespondentController(svc, forms)
	submit := middlewares.SubmissionRateLimiter()

	public.Post("/forms/:slug/responses", submit, ctrl.StartOrResume) // 🟢 start / resume

	res := public.Group("/responses/:id")
	res.Get("/", ctrl.GetResponse)                                                               // 🔍 state record
	res.Post("/answers", submit, ctrl.SubmitAnswer)                                              // 💾 satu jawaban
	res.Post("/answers/batch", submit, ctrl.SubmitAnswers)                                       // 💾 auto-save
	res.Post("/questions/:question_id/files", middlewares.UploadRateLimiter(), ctrl.UploadFiles) // 📎 file_upload
	res.Post("/finalize", submit, ctrl.Finalize)                                                 // ✅ selesai
	res.Post("/abandon", submit, ctrl.Abandon)                                                   // 🚪 tinggalkan
}

// ResponseOwnerRoutes: base /api/u (sudah lewat AuthJWT).
func ResponseOwnerRoutes(user fiber.Router, svc *service.ResponseService, guard controller.OwnerGuard) {
	ctrl := controller.NewOwnerResponseController(svc, guard)

	g := user.Group("/forms/:id/responses")
	g.Get("/", ctrl.ListResponses)
	g.Get("/:response_id", ctrl.GetResponse)
	g.Delete("/:response_id", ctrl.DeleteResponse)
}
