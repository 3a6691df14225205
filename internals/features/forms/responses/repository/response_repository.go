// internals/features/forms/responses/repository/response_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/features/forms/responses/service"
	"triddle_backend/internals/helpers/apperror"
)

// ResponseRepository implementasi service.ResponseStore di atas PostgreSQL.
// Butuh gorm.Config{TranslateError: true} supaya unique violation jadi gorm.ErrDuplicatedKey.
type ResponseRepository struct {
	db *gorm.DB
}

var _ service.ResponseStore = (*ResponseRepository)(nil)

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

/* ====================== READ ====================== */

func (r *ResponseRepository) FindOpenBySession(ctx context.Context, formID uuid.UUID, session string) (*model.FormResponseModel, error) {
	var m model.FormResponseModel
	err := r.db.WithContext(ctx).
		Where("form_response_form_id = ? AND form_response_session_token = ? AND form_response_status = ?",
			formID, session, model.ResponseStatusIncomplete).
		Order("form_response_started_at DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ResponseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.FormResponseModel, error) {
	var m model.FormResponseModel
	err := r.db.WithContext(ctx).Where("form_response_id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("response", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *ResponseRepository) ListIdleIncomplete(ctx context.Context, idleBefore time.Time, limit int) ([]model.FormResponseModel, error) {
	var rows []model.FormResponseModel
	err := r.db.WithContext(ctx).
		Select("form_response_id", "form_response_form_id", "form_response_last_activity_at").
		Where("form_response_status = ? AND form_response_last_activity_at < ?", model.ResponseStatusIncomplete, idleBefore).
		Order("form_response_last_activity_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *ResponseRepository) ListByForm(ctx context.Context, formID uuid.UUID, f service.ListFilter) ([]model.FormResponseModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.FormResponseModel{}).
		Where("form_response_form_id = ?", formID)
	if f.Status != "" {
		q = q.Where("form_response_status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "form_response_started_at DESC"
	if f.SortAsc {
		order = "form_response_started_at ASC"
	}
	q = q.Order(order)
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var rows []model.FormResponseModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* ====================== WRITE ====================== */

func (r *ResponseRepository) Create(ctx context.Context, m *model.FormResponseModel) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// uq_form_responses_open_session
		return service.ErrSessionTaken
	}
	return err
}

// UpdateVersioned: UPDATE ... WHERE id = ? AND version = expected.
// 0 rows -> service.ErrStaleVersion.
func (r *ResponseRepository) UpdateVersioned(ctx context.Context, m *model.FormResponseModel, expected int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.FormResponseModel{}).
		Where("form_response_id = ? AND form_response_version = ?", m.FormResponseID, expected).
		Updates(map[string]any{
			"form_response_answers":                m.FormResponseAnswers,
			"form_response_metadata":               m.FormResponseMetadata,
			"form_response_status":                 m.FormResponseStatus,
			"form_response_completed_at":           m.FormResponseCompletedAt,
			"form_response_last_activity_at":       m.FormResponseLastActivityAt,
			"form_response_total_time_spent":       m.FormResponseTotalTimeSpent,
			"form_response_current_question_index": m.FormResponseCurrentQuestionIndex,
			"form_response_version":                m.FormResponseVersion,
			"form_response_device_type":            m.FormResponseDeviceType,
			"form_response_country":                m.FormResponseCountry,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return service.ErrStaleVersion
	}
	return nil
}

func (r *ResponseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("form_response_id = ?", id).Delete(&model.FormResponseModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("response", id)
	}
	return nil
}

// CountByForm dipakai forms service untuk kebijakan freeze pertanyaan.
func (r *ResponseRepository) CountByForm(ctx context.Context, formID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.FormResponseModel{}).
		Where("form_response_form_id = ?", formID).
		Count(&n).Error
	return n, err
}
