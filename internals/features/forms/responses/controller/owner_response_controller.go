package controller

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/dto"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/features/forms/responses/service"
	helper "triddle_backend/internals/helpers"
)

// OwnerGuard memastikan user adalah pemilik form (NotFound / Forbidden kalau bukan).
type OwnerGuard interface {
	RequireOwner(ctx context.Context, ownerID, formID uuid.UUID) (*formModel.FormModel, error)
}

type OwnerResponseController struct {
	Svc   *service.ResponseService
	Guard OwnerGuard
}

func NewOwnerResponseController(svc *service.ResponseService, guard OwnerGuard) *OwnerResponseController {
	return &OwnerResponseController{Svc: svc, Guard: guard}
}

func (ctrl *OwnerResponseController) ownedForm(c *fiber.Ctx) (uuid.UUID, error) {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return uuid.Nil, err
	}
	formID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := ctrl.Guard.RequireOwner(c.UserContext(), userID, formID); err != nil {
		return uuid.Nil, err
	}
	return formID, nil
}

// 📄 GET /api/u/forms/:id/responses?status=&sort=asc|desc&page=&per_page=
func (ctrl *OwnerResponseController) ListResponses(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 200)

	rows, total, err := ctrl.Svc.List(c.UserContext(), formID, service.ListFilter{
		Status:  model.ResponseStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Limit:   p.Limit,
		Offset:  p.Offset,
		SortAsc: strings.EqualFold(c.Query("sort"), "asc"),
	})
	if err != nil {
		return helper.JsonFromError(c, err)
	}

	out := make([]dto.ResponseView, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToOwnerResponseView(&rows[i]))
	}
	return helper.JsonList(c, "ok", out, helper.BuildPagination(total, p, len(out)))
}

// 🔍 GET /api/u/forms/:id/responses/:response_id
func (ctrl *OwnerResponseController) GetResponse(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	responseID, err := helper.ParseUUIDParam(c, "response_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rec, err := ctrl.Svc.GetForForm(c.UserContext(), formID, responseID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToOwnerResponseView(rec))
}

// ❌ DELETE /api/u/forms/:id/responses/:response_id (hard delete + file di storage)
func (ctrl *OwnerResponseController) DeleteResponse(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	responseID, err := helper.ParseUUIDParam(c, "response_id")
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	if err := ctrl.Svc.Delete(c.UserContext(), formID, responseID); err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonDeleted(c, "Response deleted", fiber.Map{"id": responseID})
}
