package controller

import (
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/features/forms/forms/dto"
	helper "triddle_backend/internals/helpers"
)

// ➕ POST /api/u/forms/:id/questions
func (ctrl *FormController) AddQuestion(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	q, err := ctrl.Svc.AddQuestion(c.UserContext(), userID, formID, req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Question added", dto.ToQuestionResponse(q))
}

// ✏️ PUT /api/u/forms/:id/questions/:question_id
func (ctrl *FormController) UpdateQuestion(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	questionID, err := helper.ParseUUIDParam(c, "question_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	q, err := ctrl.Svc.UpdateQuestion(c.UserContext(), userID, formID, questionID, req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Question updated", dto.ToQuestionResponse(q))
}

// ❌ DELETE /api/u/forms/:id/questions/:question_id
func (ctrl *FormController) DeleteQuestion(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	questionID, err := helper.ParseUUIDParam(c, "question_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctrl.Svc.DeleteQuestion(c.UserContext(), userID, formID, questionID); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonDeleted(c, "Question deleted", fiber.Map{"id": questionID})
}

// 🔀 PUT /api/u/forms/:id/questions/order
func (ctrl *FormController) ReorderQuestions(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.ReorderQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	f, err := ctrl.Svc.ReorderQuestions(c.UserContext(), userID, formID, req.QuestionIDs)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Questions reordered", dto.ToFormResponse(f))
}
