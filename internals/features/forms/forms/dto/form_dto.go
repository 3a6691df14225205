package dto

import (
	"time"

	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/forms/service"
)

// =============================
// 📥 Request DTO
// =============================

type QuestionRequest struct {
	Title       string                `json:"title" validate:"required,max=500"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        string                `json:"type" validate:"required,oneof=short_text long_text email phone number single_choice multiple_choice dropdown file_upload date time rating boolean url"`
	Required    bool                  `json:"required"`
	Order       *int                  `json:"order,omitempty" validate:"omitempty,min=0"`
	Options     []string              `json:"options,omitempty" validate:"omitempty,dive,required,max=200"`
	Validation  model.ValidationRules `json:"validation"`
	File        model.FileRules       `json:"file"`
}

type CreateFormRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=5000"`
	Slug        string              `json:"slug,omitempty" validate:"omitempty,max=100"`
	Settings    *model.FormSettings `json:"settings,omitempty"`
	Password    string              `json:"password,omitempty" validate:"omitempty,min=4,max=72"`
	IsActive    *bool               `json:"is_active,omitempty"`
	Questions   []QuestionRequest   `json:"questions" validate:"dive"`
}

// UpdateFormRequest: field kosong (null) = tidak diubah; password "" = hapus password.
type UpdateFormRequest struct {
	Title       *string             `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string             `json:"description,omitempty" validate:"omitempty,max=5000"`
	Settings    *model.FormSettings `json:"settings,omitempty"`
	IsActive    *bool               `json:"is_active,omitempty"`
	Password    *string             `json:"password,omitempty" validate:"omitempty,max=72"`
}

type ReorderQuestionsRequest struct {
	QuestionIDs []uuid.UUID `json:"question_ids" validate:"required,min=1"`
}

// =============================
// 🔁 Converters (request -> service input)
// =============================

func (r QuestionRequest) ToInput() service.QuestionInput {
	return service.QuestionInput{
		Title:       r.Title,
		Description: r.Description,
		Type:        model.QuestionType(r.Type),
		Required:    r.Required,
		Order:       r.Order,
		Options:     r.Options,
		Rules:       r.Validation,
		File:        r.File,
	}
}

func (r CreateFormRequest) ToInput() service.CreateInput {
	in := service.CreateInput{
		Title:       r.Title,
		Description: r.Description,
		Slug:        r.Slug,
		Settings:    r.Settings,
		Password:    r.Password,
		IsActive:    r.IsActive,
	}
	for _, q := range r.Questions {
		in.Questions = append(in.Questions, q.ToInput())
	}
	return in
}

func (r UpdateFormRequest) ToInput() service.UpdateInput {
	return service.UpdateInput{
		Title:       r.Title,
		Description: r.Description,
		Settings:    r.Settings,
		IsActive:    r.IsActive,
		Password:    r.Password,
	}
}

// =============================
// 📤 Response DTO
// =============================

type QuestionResponse struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"`
	Description *string               `json:"description,omitempty"`
	Type        model.QuestionType    `json:"type"`
	Required    bool                  `json:"required"`
	Order       int                   `json:"order"`
	Options     []string              `json:"options,omitempty"`
	Validation  model.ValidationRules `json:"validation"`
	File        *model.FileRules      `json:"file,omitempty"`
}

type FormResponse struct {
	ID                  uuid.UUID          `json:"id"`
	OwnerID             uuid.UUID          `json:"owner_id"`
	Title               string             `json:"title"`
	Description         *string            `json:"description,omitempty"`
	Slug                string             `json:"slug"`
	Settings            model.FormSettings `json:"settings"`
	IsActive            bool               `json:"is_active"`
	IsPasswordProtected bool               `json:"is_password_protected"`
	ResponseCount       *int64             `json:"response_count,omitempty"`
	Questions           []QuestionResponse `json:"questions,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// PublicFormResponse: yang dilihat responden (tanpa owner & object key).
type PublicFormResponse struct {
	ID          uuid.UUID          `json:"id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Slug        string             `json:"slug"`
	Settings    model.FormSettings `json:"settings"`
	Questions   []QuestionResponse `json:"questions"`
}

func ToQuestionResponse(q *model.FormQuestionModel) QuestionResponse {
	out := QuestionResponse{
		ID:          q.FormQuestionID,
		Title:       q.FormQuestionTitle,
		Description: q.FormQuestionDescription,
		Type:        q.FormQuestionType,
		Required:    q.FormQuestionRequired,
		Order:       q.FormQuestionOrder,
		Options:     q.FormQuestionOptions,
		Validation:  q.FormQuestionRules,
	}
	if q.FormQuestionType == model.QuestionTypeFileUpload {
		f := q.FormQuestionFile
		out.File = &f
	}
	return out
}

func toQuestionResponses(f *model.FormModel) []QuestionResponse {
	qs := f.OrderedQuestions()
	out := make([]QuestionResponse, 0, len(qs))
	for i := range qs {
		out = append(out, ToQuestionResponse(&qs[i]))
	}
	return out
}

func ToFormResponse(f *model.FormModel) FormResponse {
	return FormResponse{
		ID:                  f.FormID,
		OwnerID:             f.FormOwnerID,
		Title:               f.FormTitle,
		Description:         f.FormDescription,
		Slug:                f.FormSlug,
		Settings:            f.Settings(),
		IsActive:            f.FormIsActive,
		IsPasswordProtected: f.IsPasswordProtected(),
		Questions:           toQuestionResponses(f),
		CreatedAt:           f.FormCreatedAt,
		UpdatedAt:           f.FormUpdatedAt,
	}
}

func ToFormListItem(s service.FormSummary) FormResponse {
	out := ToFormResponse(&s.Form)
	n := s.ResponseCount
	out.ResponseCount = &n
	out.Questions = nil
	return out
}

func ToPublicFormResponse(f *model.FormModel) PublicFormResponse {
	settings := f.Settings()
	settings.Theme.CoverKey, settings.Theme.LogoKey = "", ""
	return PublicFormResponse{
		ID:          f.FormID,
		Title:       f.FormTitle,
		Description: f.FormDescription,
		Slug:        f.FormSlug,
		Settings:    settings,
		Questions:   toQuestionResponses(f),
	}
}
