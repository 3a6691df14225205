// internals/features/forms/forms/repository/form_repository.go
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/forms/service"
	"triddle_backend/internals/helpers/apperror"
)

type FormRepository struct {
	db *gorm.DB
}

var _ service.FormStore = (*FormRepository)(nil)

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

// Kolom yang boleh diubah lewat SaveQuestion (id, form_id, created_at tetap).
var questionColumns = []string{
	"form_question_title",
	"form_question_description",
	"form_question_type",
	"form_question_required",
	"form_question_order",
	"form_question_options",
	"form_question_rule_min_length",
	"form_question_rule_max_length",
	"form_question_rule_min",
	"form_question_rule_max",
	"form_question_rule_pattern",
	"form_question_file_max_size",
	"form_question_file_allowed_types",
	"form_question_file_multiple",
	"form_question_updated_at",
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("form_question_order ASC")
}

/* ====================== READ ====================== */

// GetFormWithQuestions juga dipakai ResponseService (responses/service.FormReader).
func (r *FormRepository) GetFormWithQuestions(ctx context.Context, id uuid.UUID) (*model.FormModel, error) {
	var f model.FormModel
	err := r.db.WithContext(ctx).
		Preload("FormQuestions", orderedQuestions).
		Where("form_id = ?", id).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("form", id)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FormRepository) GetBySlug(ctx context.Context, slug string) (*model.FormModel, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	var f model.FormModel
	err := r.db.WithContext(ctx).
		Preload("FormQuestions", orderedQuestions).
		Where("LOWER(form_slug) = ?", slug).
		Take(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("form", slug)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SlugTaken cek slug di antara form yang masih hidup (index unik juga partial).
func (r *FormRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.FormModel{}).
		Where("LOWER(form_slug) = ?", strings.ToLower(slug)).
		Count(&n).Error
	return n > 0, err
}

func (r *FormRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, f service.ListFilter) ([]model.FormModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.FormModel{}).Where("form_owner_id = ?", ownerID)
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("(form_title ILIKE ? OR form_description ILIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Order("form_created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var rows []model.FormModel
	if err := q.Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountResponses jumlah response per form (semua status). Form tanpa response tidak muncul di map.
func (r *FormRepository) CountResponses(ctx context.Context, formIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(formIDs))
	if len(formIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		FormID uuid.UUID `gorm:"column:form_id"`
		Total  int64     `gorm:"column:total"`
	}
	err := r.db.WithContext(ctx).
		Table("form_responses").
		Select("form_response_form_id AS form_id, COUNT(*) AS total").
		Where("form_response_form_id IN ?", formIDs).
		Group("form_response_form_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.FormID] = row.Total
	}
	return out, nil
}

/* ====================== WRITE ====================== */

// Create insert form beserta pertanyaannya dalam satu transaksi.
func (r *FormRepository) Create(ctx context.Context, f *model.FormModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := f.FormQuestions
		if err := tx.Omit("FormQuestions").Create(f).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].FormQuestionFormID = f.FormID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		f.FormQuestions = questions
		return nil
	})
}

func (r *FormRepository) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.FormModel{}).Where("form_id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("form", id)
	}
	return nil
}

func (r *FormRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("form_id = ?", id).Delete(&model.FormModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("form", id)
	}
	return nil
}

/* ====================== QUESTIONS ====================== */

func (r *FormRepository) CreateQuestion(ctx context.Context, q *model.FormQuestionModel) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *FormRepository) SaveQuestion(ctx context.Context, q *model.FormQuestionModel) error {
	res := r.db.WithContext(ctx).Model(q).
		Where("form_question_form_id = ?", q.FormQuestionFormID).
		Select(questionColumns).
		Updates(q)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("question", q.FormQuestionID)
	}
	return nil
}

func (r *FormRepository) DeleteQuestion(ctx context.Context, formID, questionID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("form_question_id = ? AND form_question_form_id = ?", questionID, formID).
		Delete(&model.FormQuestionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("question", questionID)
	}
	return nil
}

// ReorderQuestions set order semua pertanyaan dalam satu UPDATE ... SET order = CASE id WHEN ... END.
func (r *FormRepository) ReorderQuestions(ctx context.Context, formID uuid.UUID, order map[uuid.UUID]int) error {
	if len(order) == 0 {
		return nil
	}
	var sb strings.Builder
	vars := make([]any, 0, len(order)*2)
	ids := make([]uuid.UUID, 0, len(order))
	sb.WriteString("CASE form_question_id")
	for id, pos := range order {
		sb.WriteString(" WHEN ? THEN CAST(? AS integer)")
		vars = append(vars, id, pos)
		ids = append(ids, id)
	}
	sb.WriteString(" ELSE form_question_order END")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.FormQuestionModel{}).
			Where("form_question_form_id = ? AND form_question_id IN ?", formID, ids).
			Update("form_question_order", clause.Expr{SQL: sb.String(), Vars: vars})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(order)) {
			return apperror.Conflict("form", formID, "question set changed while reordering")
		}
		return nil
	})
}
