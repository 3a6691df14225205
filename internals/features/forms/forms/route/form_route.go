package route

import (
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/features/forms/forms/controller"
	"triddle_backend/internals/features/forms/forms/service"
)

// 🔐 Owner routes, dipasang di group /api/u (AuthJWT).
func FormUserRoutes(r fiber.Router, svc *service.FormService) {
	ctrl := controller.NewFormController(svc)

	forms := r.Group("/forms")
	forms.Post("/", ctrl.CreateForm)                 // ➕ Buat form (+ pertanyaan)
	forms.Get("/", ctrl.ListMyForms)                 // 📄 Form milik user
	forms.Get("/:id", ctrl.GetMyForm)                // 🔍 Detail
	forms.Patch("/:id", ctrl.UpdateForm)             // ✏️ Ubah judul/setting/password
	forms.Delete("/:id", ctrl.DeleteForm)            // ❌ Soft delete
	forms.Put("/:id/images/:kind", ctrl.UploadImage) // 🖼️ cover | logo

	// Pertanyaan ("order" harus sebelum :question_id)
	forms.Post("/:id/questions", ctrl.AddQuestion)
	forms.Put("/:id/questions/order", ctrl.ReorderQuestions)
	forms.Put("/:id/questions/:question_id", ctrl.UpdateQuestion)
	forms.Delete("/:id/questions/:question_id", ctrl.DeleteQuestion)
}

// 🌐 Public routes, dipasang di group /api/public (JWT opsional).
func FormPublicRoutes(r fiber.Router, svc *service.FormService) {
	ctrl := controller.NewFormController(svc)
	r.Get("/forms/:slug", ctrl.GetPublicForm)
}
