package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/responses/model"
)

// Store: agregasi mentah langsung dari tabel form_responses.
// Map kosong (bukan nil error) kalau form belum punya response.
type Store interface {
	CountByStatus(ctx context.Context, formID uuid.UUID) (map[model.ResponseStatus]int64, error)
	// AverageCompletedTime: nil kalau belum ada yang completed.
	AverageCompletedTime(ctx context.Context, formID uuid.UUID) (*float64, error)
	CountByDevice(ctx context.Context, formID uuid.UUID) (map[string]int64, error)
	// CountByDay: key "2006-01-02" (UTC), from & to inklusif (sudah dipotong ke awal hari).
	CountByDay(ctx context.Context, formID uuid.UUID, from, to time.Time) (map[string]int64, error)
	CountByCountry(ctx context.Context, formID uuid.UUID) (map[string]int64, error)
}
