package controller

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"triddle_backend/internals/constants"
	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/dto"
	"triddle_backend/internals/features/forms/responses/service"
	helper "triddle_backend/internals/helpers"
)

var validate = validator.New()

// PublicFormResolver: slug -> form yang boleh diisi viewer (cek aktif, private, password).
type PublicFormResolver interface {
	GetPublic(ctx context.Context, slug string, viewer uuid.UUID, password string) (*formModel.FormModel, error)
}

type RespondentController struct {
	Svc   *service.ResponseService
	Forms PublicFormResolver
}

func NewRespondentController(svc *service.ResponseService, forms PublicFormResolver) *RespondentController {
	return &RespondentController{Svc: svc, Forms: forms}
}

func sessionFrom(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Get(constants.HeaderResponseSession))
}

// ownedResponse: parse :id lalu pastikan session header cocok dengan record.
func (ctrl *RespondentController) ownedResponse(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := ctrl.Svc.GetForSession(c.UserContext(), id, sessionFrom(c)); err != nil {
		return uuid.Nil, err
	}
	c.Set(constants.HeaderResponseSession, sessionFrom(c))
	return id, nil
}

// 🟢 POST /api/public/forms/:slug/responses
func (ctrl *RespondentController) StartOrResume(c *fiber.Ctx) error {
	var req dto.StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}

	form, err := ctrl.Forms.GetPublic(c.UserContext(), c.Params("slug"), helper.OptionalUserID(c), c.Get(constants.HeaderFormPassword))
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	rec, resumed, err := ctrl.Svc.StartOrResume(c.UserContext(), form.FormID, sessionFrom(c), requestMetadata(c, req.Geolocation))
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	c.Set(constants.HeaderResponseSession, rec.FormResponseSessionToken)
	out := dto.StartResponse{
		ResponseView: dto.ToResponseView(rec),
		SessionToken: rec.FormResponseSessionToken,
		Resumed:      resumed,
	}
	if resumed {
		return helper.JsonOK(c, "Response resumed", out)
	}
	return helper.JsonCreated(c, "Response started", out)
}

// 🔍 GET /api/public/responses/:id
func (ctrl *RespondentController) GetResponse(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rec, err := ctrl.Svc.GetForSession(c.UserContext(), id, sessionFrom(c))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToResponseView(rec))
}

// 💾 POST /api/public/responses/:id/answers
func (ctrl *RespondentController) SubmitAnswer(c *fiber.Ctx) error {
	id, err := ctrl.ownedResponse(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	rec, err := ctrl.Svc.SubmitAnswer(c.UserContext(), id, req.QuestionID, req.Value, req.TimeSpent)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Answer saved", dto.ToResponseView(rec))
}

// 💾 POST /api/public/responses/:id/answers/batch (auto-save; berhenti di kegagalan pertama)
func (ctrl *RespondentController) SubmitAnswers(c *fiber.Ctx) error {
	id, err := ctrl.ownedResponse(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.BatchAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	rec, applied, err := ctrl.Svc.SubmitAnswers(c.UserContext(), id, req.ToInputs())
	if err != nil {
		log.Printf("[Respondent] batch stopped response=%s applied=%d: %v", id, applied, err)
		c.Set("X-Answers-Applied", strconv.Itoa(applied))
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Answers saved", fiber.Map{
		"applied":  applied,
		"response": dto.ToResponseView(rec),
	})
}

// 📎 POST /api/public/responses/:id/questions/:question_id/files (multipart "files")
func (ctrl *RespondentController) UploadFiles(c *fiber.Ctx) error {
	id, err := ctrl.ownedResponse(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	questionID, err := helper.ParseUUIDParam(c, "question_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "multipart/form-data body is required")
	}
	files, err := uploadFiles(form)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	var timeSpent int64
	if v := strings.TrimSpace(c.FormValue("time_spent")); v != "" {
		if timeSpent, err = strconv.ParseInt(v, 10, 64); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "time_spent must be an integer")
		}
	}

	rec, err := ctrl.Svc.UploadFiles(c.UserContext(), id, questionID, files, timeSpent)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Files uploaded", dto.ToResponseView(rec))
}

// ✅ POST /api/public/responses/:id/finalize
func (ctrl *RespondentController) Finalize(c *fiber.Ctx) error {
	id, err := ctrl.ownedResponse(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rec, err := ctrl.Svc.Finalize(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Response completed", dto.ToResponseView(rec))
}

// 🚪 POST /api/public/responses/:id/abandon
func (ctrl *RespondentController) Abandon(c *fiber.Ctx) error {
	id, err := ctrl.ownedResponse(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rec, err := ctrl.Svc.Abandon(c.UserContext(), id)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "Response abandoned", dto.ToResponseView(rec))
}
