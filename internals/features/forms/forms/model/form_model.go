// file: internals/features/forms/forms/model/form_model.go
package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FormTheme struct {
	PrimaryColor string `json:"primary_color,omitempty"`
	CoverURL     string `json:"cover_url,omitempty"`
	CoverKey     string `json:"cover_key,omitempty"`
	LogoURL      string `json:"logo_url,omitempty"`
	LogoKey      string `json:"logo_key,omitempty"`
}

type FormSettings struct {
	IsPublic      bool      `json:"is_public"`
	AutoSave      bool      `json:"auto_save"`
	MultiLanguage bool      `json:"multi_language"`
	Languages     []string  `json:"languages,omitempty"`
	Theme         FormTheme `json:"theme"`
}

func DefaultFormSettings() FormSettings {
	return FormSettings{IsPublic: true, AutoSave: true}
}

type FormModel struct {
	FormID           uuid.UUID                        `gorm:"column:form_id;type:uuid;default:gen_random_uuid();primaryKey" json:"form_id"`
	FormOwnerID      uuid.UUID                        `gorm:"column:form_owner_id;type:uuid;not null;index" json:"form_owner_id"`
	FormTitle        string                           `gorm:"column:form_title;type:varchar(200);not null" json:"form_title"`
	FormDescription  *string                          `gorm:"column:form_description;type:text" json:"form_description,omitempty"`
	FormSlug         string                           `gorm:"column:form_slug;type:varchar(120);not null" json:"form_slug"`
	FormSettings     datatypes.JSONType[FormSettings] `gorm:"column:form_settings;type:jsonb;not null" json:"form_settings"`
	FormPasswordHash *string                          `gorm:"column:form_password_hash;type:text" json:"-"`
	FormIsActive     bool                             `gorm:"column:form_is_active;not null;default:true" json:"form_is_active"`

	FormQuestions []FormQuestionModel `gorm:"foreignKey:FormQuestionFormID;references:FormID" json:"form_questions,omitempty"`

	FormCreatedAt time.Time      `gorm:"column:form_created_at;autoCreateTime" json:"form_created_at"`
	FormUpdatedAt time.Time      `gorm:"column:form_updated_at;autoUpdateTime" json:"form_updated_at"`
	FormDeletedAt gorm.DeletedAt `gorm:"column:form_deleted_at;index" json:"form_deleted_at,omitempty"`
}

func (FormModel) TableName() string { return "forms" }

func (f *FormModel) Settings() FormSettings { return f.FormSettings.Data() }

func (f *FormModel) SetSettings(s FormSettings) { f.FormSettings = datatypes.NewJSONType(s) }

func (f *FormModel) IsPasswordProtected() bool {
	return f.FormPasswordHash != nil && *f.FormPasswordHash != ""
}

// OrderedQuestions mengembalikan salinan pertanyaan terurut by order.
func (f *FormModel) OrderedQuestions() []FormQuestionModel {
	out := make([]FormQuestionModel, len(f.FormQuestions))
	copy(out, f.FormQuestions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FormQuestionOrder < out[j].FormQuestionOrder
	})
	return out
}

func (f *FormModel) Question(id uuid.UUID) (*FormQuestionModel, bool) {
	for i := range f.FormQuestions {
		if f.FormQuestions[i].FormQuestionID == id {
			return &f.FormQuestions[i], true
		}
	}
	return nil, false
}

func (f *FormModel) NextOrder() int {
	next := 0
	for _, q := range f.FormQuestions {
		if q.FormQuestionOrder >= next {
			next = q.FormQuestionOrder + 1
		}
	}
	return next
}

// ValidateQuestionSet: shape tiap pertanyaan + order unik dalam satu form.
func ValidateQuestionSet(questions []FormQuestionModel) error {
	seen := make(map[int]string, len(questions))
	for i := range questions {
		q := &questions[i]
		if err := q.ValidateShape(); err != nil {
			return fmt.Errorf("question %q: %w", q.FormQuestionTitle, err)
		}
		if other, dup := seen[q.FormQuestionOrder]; dup {
			return fmt.Errorf("questions %q and %q share order %d", other, q.FormQuestionTitle, q.FormQuestionOrder)
		}
		seen[q.FormQuestionOrder] = q.FormQuestionTitle
	}
	return nil
}

var ErrEmptyTitle = errors.New("form title is required")

func (f *FormModel) Validate() error {
	if len([]rune(f.FormTitle)) == 0 {
		return ErrEmptyTitle
	}
	return ValidateQuestionSet(f.FormQuestions)
}
