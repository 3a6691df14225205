package controller

import (
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"triddle_backend/internals/constants"
	"triddle_backend/internals/features/forms/forms/dto"
	"triddle_backend/internals/features/forms/forms/service"
	helper "triddle_backend/internals/helpers"
)

var validate = validator.New()

type FormController struct {
	Svc *service.FormService
}

func NewFormController(svc *service.FormService) *FormController {
	return &FormController{Svc: svc}
}

// 🟢 POST /api/u/forms
func (ctrl *FormController) CreateForm(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.CreateFormRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("[ERROR] body parser: %v", err)
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	f, err := ctrl.Svc.Create(c.UserContext(), userID, req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonCreated(c, "Form created", dto.ToFormResponse(f))
}

// 🟢 GET /api/u/forms?q=&page=&per_page=
func (ctrl *FormController) ListMyForms(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)

	rows, total, err := ctrl.Svc.ListOwned(c.UserContext(), userID, service.ListFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	out := make([]dto.FormResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ToFormListItem(r))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p, len(out)))
}

// 🟢 GET /api/u/forms/:id
func (ctrl *FormController) GetMyForm(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	f, err := ctrl.Svc.RequireOwner(c.UserContext(), userID, formID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToFormResponse(f))
}

// 🟡 PATCH /api/u/forms/:id
func (ctrl *FormController) UpdateForm(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	var req dto.UpdateFormRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	f, err := ctrl.Svc.Update(c.UserContext(), userID, formID, req.ToInput())
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Form updated", dto.ToFormResponse(f))
}

// 🔴 DELETE /api/u/forms/:id (soft delete)
func (ctrl *FormController) DeleteForm(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctrl.Svc.Delete(c.UserContext(), userID, formID); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonDeleted(c, "Form deleted", fiber.Map{"id": formID})
}

// 🖼️ PUT /api/u/forms/:id/images/:kind (multipart field "file"; kind = cover|logo)
func (ctrl *FormController) UploadImage(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "multipart field 'file' is required")
	}
	if fh.Size > constants.MaxFormImageBytes {
		return helper.JsonError(c, fiber.StatusRequestEntityTooLarge, "image is too large")
	}
	src, err := fh.Open()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	kind := service.ImageKind(strings.ToLower(c.Params("kind")))
	f, err := ctrl.Svc.SetImage(c.UserContext(), userID, formID, kind, src)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonUpdated(c, "Image updated", dto.ToFormResponse(f))
}

// 🌐 GET /api/public/forms/:slug (header X-Form-Password untuk form berpassword)
func (ctrl *FormController) GetPublicForm(c *fiber.Ctx) error {
	f, err := ctrl.Svc.GetPublic(c.UserContext(), c.Params("slug"), helper.OptionalUserID(c), c.Get(constants.HeaderFormPassword))
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToPublicFormResponse(f))
}
