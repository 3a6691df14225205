package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/features/forms/responses/service"
)

// =============================
// 📥 Request DTO
// =============================

// StartRequest: body opsional. Geolocation dipakai kalau edge header tidak ada.
type StartRequest struct {
	Geolocation *model.Geolocation `json:"geolocation,omitempty"`
}

type AnswerRequest struct {
	QuestionID uuid.UUID       `json:"question_id" validate:"required"`
	Value      json.RawMessage `json:"value"`
	TimeSpent  int64           `json:"time_spent"`
}

type BatchAnswerRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,max=200,dive"`
}

func (r BatchAnswerRequest) ToInputs() []service.AnswerInput {
	out := make([]service.AnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		out = append(out, service.AnswerInput{QuestionID: a.QuestionID, Value: a.Value, TimeSpent: a.TimeSpent})
	}
	return out
}

// =============================
// 📤 Response DTO
// =============================

type ResponseView struct {
	ID                   uuid.UUID               `json:"id"`
	FormID               uuid.UUID               `json:"form_id"`
	Status               model.ResponseStatus    `json:"status"`
	Answers              []model.Answer          `json:"answers"`
	CurrentQuestionIndex int                     `json:"current_question_index"`
	TotalTimeSpent       int64                   `json:"total_time_spent"`
	StartedAt            time.Time               `json:"started_at"`
	LastActivityAt       time.Time               `json:"last_activity_at"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	Version              int64                   `json:"version"`
	Metadata             *model.ResponseMetadata `json:"metadata,omitempty"`
}

type StartResponse struct {
	ResponseView
	SessionToken string `json:"session_token"`
	Resumed      bool   `json:"resumed"`
}

// ToResponseView untuk responden (tanpa metadata).
func ToResponseView(r *model.FormResponseModel) ResponseView {
	answers := []model.Answer(r.FormResponseAnswers)
	if answers == nil {
		answers = []model.Answer{}
	}
	return ResponseView{
		ID:                   r.FormResponseID,
		FormID:               r.FormResponseFormID,
		Status:               r.FormResponseStatus,
		Answers:              answers,
		CurrentQuestionIndex: r.FormResponseCurrentQuestionIndex,
		TotalTimeSpent:       r.FormResponseTotalTimeSpent,
		StartedAt:            r.FormResponseStartedAt,
		LastActivityAt:       r.FormResponseLastActivityAt,
		CompletedAt:          r.FormResponseCompletedAt,
		Version:              r.FormResponseVersion,
	}
}

// ToOwnerResponseView: pemilik form juga melihat metadata (ip, device, geo).
func ToOwnerResponseView(r *model.FormResponseModel) ResponseView {
	v := ToResponseView(r)
	meta := r.Metadata()
	v.Metadata = &meta
	return v
}
