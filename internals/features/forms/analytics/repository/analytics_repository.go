// internals/features/forms/analytics/repository/analytics_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"triddle_backend/internals/features/forms/analytics/service"
	"triddle_backend/internals/features/forms/responses/model"
)

// AnalyticsRepository: GROUP BY langsung di form_responses.
// Device & country memakai kolom denormalisasi, bukan jsonb metadata.
type AnalyticsRepository struct {
	db *gorm.DB
}

var _ service.Store = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type bucketRow struct {
	Bucket string
	N      int64
}

func (r *AnalyticsRepository) groupCount(ctx context.Context, formID uuid.UUID, column string) ([]bucketRow, error) {
	var rows []bucketRow
	err := r.db.WithContext(ctx).
		Model(&model.FormResponseModel{}).
		Select(column+" AS bucket, COUNT(*) AS n").
		Where("form_response_form_id = ?", formID).
		Group(column).
		Scan(&rows).Error
	return rows, err
}

func (r *AnalyticsRepository) CountByStatus(ctx context.Context, formID uuid.UUID) (map[model.ResponseStatus]int64, error) {
	rows, err := r.groupCount(ctx, formID, "form_response_status")
	if err != nil {
		return nil, err
	}
	out := make(map[model.ResponseStatus]int64, len(rows))
	for _, row := range rows {
		out[model.ResponseStatus(row.Bucket)] = row.N
	}
	return out, nil
}

func (r *AnalyticsRepository) AverageCompletedTime(ctx context.Context, formID uuid.UUID) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).
		Model(&model.FormResponseModel{}).
		Select("AVG(form_response_total_time_spent)").
		Where("form_response_form_id = ? AND form_response_status = ?", formID, model.ResponseStatusCompleted).
		Row().Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *AnalyticsRepository) CountByDevice(ctx context.Context, formID uuid.UUID) (map[string]int64, error) {
	return r.toMap(r.groupCount(ctx, formID, "form_response_device_type"))
}

func (r *AnalyticsRepository) CountByCountry(ctx context.Context, formID uuid.UUID) (map[string]int64, error) {
	return r.toMap(r.groupCount(ctx, formID, "form_response_country"))
}

// CountByDay: [from, to+1 hari) pada created_at, dibucket per hari UTC.
func (r *AnalyticsRepository) CountByDay(ctx context.Context, formID uuid.UUID, from, to time.Time) (map[string]int64, error) {
	const day = "to_char(form_response_created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	var rows []bucketRow
	err := r.db.WithContext(ctx).
		Model(&model.FormResponseModel{}).
		Select(day+" AS bucket, COUNT(*) AS n").
		Where("form_response_form_id = ? AND form_response_created_at >= ? AND form_response_created_at < ?",
			formID, from.UTC(), to.UTC().AddDate(0, 0, 1)).
		Group("bucket").
		Scan(&rows).Error
	return r.toMap(rows, err)
}

func (r *AnalyticsRepository) toMap(rows []bucketRow, err error) (map[string]int64, error) {
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Bucket] += row.N
	}
	return out, nil
}
