package dto

import (
	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/analytics/service"
)

type CompletionRateResponse struct {
	FormID         uuid.UUID `json:"form_id"`
	CompletionRate float64   `json:"completion_rate"`
}

type AverageTimeResponse struct {
	FormID uuid.UUID `json:"form_id"`
	// detik; null kalau belum ada response completed
	AverageTimeToComplete *float64 `json:"average_time_to_complete"`
}

type DevicesResponse struct {
	FormID  uuid.UUID             `json:"form_id"`
	Devices []service.DeviceShare `json:"devices"`
}

type TimelineResponse struct {
	FormID   uuid.UUID          `json:"form_id"`
	From     string             `json:"from"`
	To       string             `json:"to"`
	Timeline []service.DayCount `json:"timeline"`
}

type GeoResponse struct {
	FormID uuid.UUID              `json:"form_id"`
	Geo    []service.CountryCount `json:"geo"`
}
