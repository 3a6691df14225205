package controller

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/analytics/dto"
	"triddle_backend/internals/features/forms/analytics/service"
	formModel "triddle_backend/internals/features/forms/forms/model"
	helper "triddle_backend/internals/helpers"
)

// window default kalau ?from / ?to kosong
const defaultTimelineDays = 30

type OwnerGuard interface {
	RequireOwner(ctx context.Context, ownerID, formID uuid.UUID) (*formModel.FormModel, error)
}

type AnalyticsController struct {
	Svc   *service.AnalyticsService
	Guard OwnerGuard
	Now   func() time.Time
}

func NewAnalyticsController(svc *service.AnalyticsService, guard OwnerGuard) *AnalyticsController {
	return &AnalyticsController{Svc: svc, Guard: guard, Now: time.Now}
}

func (ctrl *AnalyticsController) ownedForm(c *fiber.Ctx) (uuid.UUID, error) {
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

// window: ?from=YYYY-MM-DD&to=YYYY-MM-DD (RFC3339 juga diterima). Default 30 hari terakhir.
func (ctrl *AnalyticsController) window(c *fiber.Ctx) (time.Time, time.Time, error) {
	to := ctrl.Now().UTC()
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		t, err := parseDay(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid 'to' date")
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultTimelineDays - 1))
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		t, err := parseDay(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid 'from' date")
		}
		from = t
	}
	return service.NormalizeWindow(from, to)
}

func parseDay(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// 📊 GET /api/u/forms/:id/analytics/summary?from=&to=
func (ctrl *AnalyticsController) Summary(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	from, to, err := ctrl.window(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	out, err := ctrl.Svc.Summary(c.UserContext(), formID, from, to)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", out)
}

// 📊 GET /api/u/forms/:id/analytics/completion-rate
func (ctrl *AnalyticsController) CompletionRate(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	rate, err := ctrl.Svc.CompletionRate(c.UserContext(), formID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.CompletionRateResponse{FormID: formID, CompletionRate: rate})
}

// ⏱️ GET /api/u/forms/:id/analytics/average-time
func (ctrl *AnalyticsController) AverageTime(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	avg, err := ctrl.Svc.AverageTimeToComplete(c.UserContext(), formID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.AverageTimeResponse{FormID: formID, AverageTimeToComplete: avg})
}

// 📱 GET /api/u/forms/:id/analytics/devices
func (ctrl *AnalyticsController) Devices(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	devices, err := ctrl.Svc.DeviceBreakdown(c.UserContext(), formID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.DevicesResponse{FormID: formID, Devices: devices})
}

// 📈 GET /api/u/forms/:id/analytics/timeline?from=&to=
func (ctrl *AnalyticsController) Timeline(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	from, to, err := ctrl.window(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	days, err := ctrl.Svc.Timeline(c.UserContext(), formID, from, to)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.TimelineResponse{
		FormID:   formID,
		From:     from.Format("2006-01-02"),
		To:       to.Format("2006-01-02"),
		Timeline: days,
	})
}

// 🌍 GET /api/u/forms/:id/analytics/geo
func (ctrl *AnalyticsController) Geo(c *fiber.Ctx) error {
	formID, err := ctrl.ownedForm(c)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	geo, err := ctrl.Svc.GeoDistribution(c.UserContext(), formID)
	if err != nil {
		return helper.JsonFromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.GeoResponse{FormID: formID, Geo: geo})
}
