// file: internals/features/forms/forms/model/form_question_model.go
package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type QuestionType string

const (
	QuestionTypeShortText      QuestionType = "short_text"
	QuestionTypeLongText       QuestionType = "long_text"
	QuestionTypeEmail          QuestionType = "email"
	QuestionTypePhone          QuestionType = "phone"
	QuestionTypeNumber         QuestionType = "number"
	QuestionTypeSingleChoice   QuestionType = "single_choice"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeDropdown       QuestionType = "dropdown"
	QuestionTypeFileUpload     QuestionType = "file_upload"
	QuestionTypeDate           QuestionType = "date"
	QuestionTypeTime           QuestionType = "time"
	QuestionTypeRating         QuestionType = "rating"
	QuestionTypeBoolean        QuestionType = "boolean"
	QuestionTypeURL            QuestionType = "url"
)

// QuestionTypeOneOf dipakai di tag validate (oneof=...).
const QuestionTypeOneOf = "short_text long_text email phone number single_choice multiple_choice dropdown file_upload date time rating boolean url"

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeShortText, QuestionTypeLongText, QuestionTypeEmail, QuestionTypePhone,
		QuestionTypeNumber, QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeDropdown,
		QuestionTypeFileUpload, QuestionTypeDate, QuestionTypeTime, QuestionTypeRating,
		QuestionTypeBoolean, QuestionTypeURL:
		return true
	}
	return false
}

func (t QuestionType) IsChoice() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultipleChoice || t == QuestionTypeDropdown
}

func (t QuestionType) IsText() bool {
	switch t {
	case QuestionTypeShortText, QuestionTypeLongText, QuestionTypeEmail, QuestionTypePhone, QuestionTypeURL:
		return true
	}
	return false
}

func (t QuestionType) IsNumeric() bool {
	return t == QuestionTypeNumber || t == QuestionTypeRating
}

// ValidationRules disimpan sebagai kolom ber-prefix form_question_rule_*.
type ValidationRules struct {
	MinLength *int     `gorm:"column:min_length" json:"min_length,omitempty"`
	MaxLength *int     `gorm:"column:max_length" json:"max_length,omitempty"`
	Min       *float64 `gorm:"column:min" json:"min,omitempty"`
	Max       *float64 `gorm:"column:max" json:"max,omitempty"`
	Pattern   *string  `gorm:"column:pattern;type:text" json:"pattern,omitempty"`
}

func (r ValidationRules) IsZero() bool {
	return r.MinLength == nil && r.MaxLength == nil && r.Min == nil && r.Max == nil &&
		(r.Pattern == nil || strings.TrimSpace(*r.Pattern) == "")
}

// FileRules hanya boleh terisi untuk tipe file_upload.
type FileRules struct {
	MaxSize      *int64         `gorm:"column:max_size" json:"max_size,omitempty"`
	AllowedTypes pq.StringArray `gorm:"column:allowed_types;type:text[]" json:"allowed_types,omitempty"`
	Multiple     bool           `gorm:"column:multiple;not null;default:false" json:"multiple"`
}

func (r FileRules) IsZero() bool {
	return r.MaxSize == nil && len(r.AllowedTypes) == 0 && !r.Multiple
}

type FormQuestionModel struct {
	FormQuestionID          uuid.UUID       `gorm:"column:form_question_id;type:uuid;default:gen_random_uuid();primaryKey" json:"form_question_id"`
	FormQuestionFormID      uuid.UUID       `gorm:"column:form_question_form_id;type:uuid;not null;index" json:"form_question_form_id"`
	FormQuestionTitle       string          `gorm:"column:form_question_title;type:text;not null" json:"form_question_title"`
	FormQuestionDescription *string         `gorm:"column:form_question_description;type:text" json:"form_question_description,omitempty"`
	FormQuestionType        QuestionType    `gorm:"column:form_question_type;type:varchar(20);not null" json:"form_question_type"`
	FormQuestionRequired    bool            `gorm:"column:form_question_required;not null;default:false" json:"form_question_required"`
	FormQuestionOrder       int             `gorm:"column:form_question_order;not null" json:"form_question_order"`
	FormQuestionOptions     pq.StringArray  `gorm:"column:form_question_options;type:text[]" json:"form_question_options,omitempty"`
	FormQuestionRules       ValidationRules `gorm:"embedded;embeddedPrefix:form_question_rule_" json:"form_question_rules"`
	FormQuestionFile        FileRules       `gorm:"embedded;embeddedPrefix:form_question_file_" json:"form_question_file"`

	FormQuestionCreatedAt time.Time `gorm:"column:form_question_created_at;autoCreateTime" json:"form_question_created_at"`
	FormQuestionUpdatedAt time.Time `gorm:"column:form_question_updated_at;autoUpdateTime" json:"form_question_updated_at"`
}

func (FormQuestionModel) TableName() string { return "form_questions" }

// ValidateShape mirror CHECK di level app: options untuk tipe pilihan,
// file rules hanya untuk file_upload, batas min/max konsisten, pattern valid.
func (m *FormQuestionModel) ValidateShape() error {
	if strings.TrimSpace(m.FormQuestionTitle) == "" {
		return errors.New("title is required")
	}
	if !m.FormQuestionType.Valid() {
		return fmt.Errorf("unknown question type %q", m.FormQuestionType)
	}
	if m.FormQuestionOrder < 0 {
		return errors.New("order must be >= 0")
	}

	if m.FormQuestionType.IsChoice() {
		if len(m.FormQuestionOptions) == 0 {
			return errors.New("choice questions need at least one option")
		}
		seen := make(map[string]struct{}, len(m.FormQuestionOptions))
		for _, o := range m.FormQuestionOptions {
			if strings.TrimSpace(o) == "" {
				return errors.New("options cannot be blank")
			}
			if _, dup := seen[o]; dup {
				return fmt.Errorf("duplicate option %q", o)
			}
			seen[o] = struct{}{}
		}
	} else if len(m.FormQuestionOptions) > 0 {
		return errors.New("options are only allowed on choice questions")
	}

	if m.FormQuestionType == QuestionTypeFileUpload {
		if m.FormQuestionFile.MaxSize != nil && *m.FormQuestionFile.MaxSize <= 0 {
			return errors.New("file max_size must be positive")
		}
	} else if !m.FormQuestionFile.IsZero() {
		return errors.New("file rules are only allowed on file_upload questions")
	}

	r := m.FormQuestionRules
	if r.MinLength != nil && *r.MinLength < 0 {
		return errors.New("min_length must be >= 0")
	}
	if r.MinLength != nil && r.MaxLength != nil && *r.MinLength > *r.MaxLength {
		return errors.New("min_length cannot exceed max_length")
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return errors.New("min cannot exceed max")
	}
	if r.Pattern != nil && strings.TrimSpace(*r.Pattern) != "" {
		if _, err := regexp.Compile(*r.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %v", err)
		}
	}
	return nil
}

// HasOption cek keanggotaan nilai di daftar options.
func (m *FormQuestionModel) HasOption(v string) bool {
	for _, o := range m.FormQuestionOptions {
		if o == v {
			return true
		}
	}
	return false
}
