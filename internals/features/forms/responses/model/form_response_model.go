// file: internals/features/forms/responses/model/form_response_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ResponseStatus string

const (
	ResponseStatusIncomplete ResponseStatus = "incomplete"
	ResponseStatusCompleted  ResponseStatus = "completed"
	ResponseStatusAbandoned  ResponseStatus = "abandoned"
)

func (s ResponseStatus) Valid() bool {
	return s == ResponseStatusIncomplete || s == ResponseStatusCompleted || s == ResponseStatusAbandoned
}

// IsTerminal: completed & abandoned tidak bisa dimutasi lagi.
func (s ResponseStatus) IsTerminal() bool {
	return s == ResponseStatusCompleted || s == ResponseStatusAbandoned
}

type Geolocation struct {
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
	DeviceUnknown DeviceType = "unknown"
)

type DeviceInfo struct {
	Type    DeviceType `json:"type"`
	OS      string     `json:"os,omitempty"`
	Browser string     `json:"browser,omitempty"`
}

type ResponseMetadata struct {
	IP          string       `json:"ip,omitempty"`
	UserAgent   string       `json:"user_agent,omitempty"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
	Referrer    string       `json:"referrer,omitempty"`
	Device      DeviceInfo   `json:"device"`
}

func (m ResponseMetadata) Country() string {
	if m.Geolocation == nil {
		return ""
	}
	return m.Geolocation.Country
}

type FormResponseModel struct {
	FormResponseID                   uuid.UUID                            `gorm:"column:form_response_id;type:uuid;default:gen_random_uuid();primaryKey" json:"form_response_id"`
	FormResponseFormID               uuid.UUID                            `gorm:"column:form_response_form_id;type:uuid;not null;index" json:"form_response_form_id"`
	FormResponseSessionToken         string                               `gorm:"column:form_response_session_token;type:varchar(64);not null" json:"-"`
	FormResponseAnswers              datatypes.JSONSlice[Answer]          `gorm:"column:form_response_answers;type:jsonb;not null" json:"form_response_answers"`
	FormResponseMetadata             datatypes.JSONType[ResponseMetadata] `gorm:"column:form_response_metadata;type:jsonb;not null" json:"form_response_metadata"`
	FormResponseStatus               ResponseStatus                       `gorm:"column:form_response_status;type:varchar(16);not null;default:'incomplete';index" json:"form_response_status"`
	FormResponseStartedAt            time.Time                            `gorm:"column:form_response_started_at;not null" json:"form_response_started_at"`
	FormResponseCompletedAt          *time.Time                           `gorm:"column:form_response_completed_at" json:"form_response_completed_at,omitempty"`
	FormResponseLastActivityAt       time.Time                            `gorm:"column:form_response_last_activity_at;not null;index" json:"form_response_last_activity_at"`
	FormResponseTotalTimeSpent       int64                                `gorm:"column:form_response_total_time_spent;not null;default:0" json:"form_response_total_time_spent"`
	FormResponseCurrentQuestionIndex int                                  `gorm:"column:form_response_current_question_index;not null;default:0" json:"form_response_current_question_index"`
	FormResponseVersion              int64                                `gorm:"column:form_response_version;not null;default:1" json:"form_response_version"`

	// Denormalisasi dari metadata supaya agregasi cukup GROUP BY kolom.
	FormResponseDeviceType string `gorm:"column:form_response_device_type;type:varchar(16);not null;default:'unknown'" json:"-"`
	FormResponseCountry    string `gorm:"column:form_response_country;type:varchar(64);not null;default:''" json:"-"`

	FormResponseCreatedAt time.Time `gorm:"column:form_response_created_at;autoCreateTime" json:"form_response_created_at"`
	FormResponseUpdatedAt time.Time `gorm:"column:form_response_updated_at;autoUpdateTime" json:"form_response_updated_at"`
}

func (FormResponseModel) TableName() string { return "form_responses" }

func (r *FormResponseModel) Metadata() ResponseMetadata { return r.FormResponseMetadata.Data() }

func (r *FormResponseModel) SetMetadata(m ResponseMetadata) {
	if m.Device.Type == "" {
		m.Device.Type = DeviceUnknown
	}
	r.FormResponseMetadata = datatypes.NewJSONType(m)
	r.FormResponseDeviceType = string(m.Device.Type)
	r.FormResponseCountry = m.Country()
}

// Answer mengembalikan jawaban untuk questionID (kalau ada).
func (r *FormResponseModel) Answer(questionID uuid.UUID) (Answer, bool) {
	for _, a := range r.FormResponseAnswers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// UpsertAnswer mengganti jawaban dengan questionID yang sama, atau menambah di akhir.
// Waktu pengerjaan per pertanyaan diakumulasi.
func (r *FormResponseModel) UpsertAnswer(a Answer) {
	for i := range r.FormResponseAnswers {
		if r.FormResponseAnswers[i].QuestionID == a.QuestionID {
			a.TimeSpent += r.FormResponseAnswers[i].TimeSpent
			r.FormResponseAnswers[i] = a
			return
		}
	}
	r.FormResponseAnswers = append(r.FormResponseAnswers, a)
}

func (r *FormResponseModel) RemoveAnswer(questionID uuid.UUID) {
	out := r.FormResponseAnswers[:0]
	for _, a := range r.FormResponseAnswers {
		if a.QuestionID != questionID {
			out = append(out, a)
		}
	}
	r.FormResponseAnswers = out
}

func (r *FormResponseModel) IsAnswered(questionID uuid.UUID) bool {
	a, ok := r.Answer(questionID)
	return ok && !a.Value.IsEmpty()
}

// Clone deep copy, dipakai service supaya kegagalan tidak mengubah record asli.
func (r *FormResponseModel) Clone() *FormResponseModel {
	cp := *r
	if r.FormResponseAnswers != nil {
		cp.FormResponseAnswers = make(datatypes.JSONSlice[Answer], len(r.FormResponseAnswers))
		for i, a := range r.FormResponseAnswers {
			cp.FormResponseAnswers[i] = a.clone()
		}
	}
	if r.FormResponseCompletedAt != nil {
		t := *r.FormResponseCompletedAt
		cp.FormResponseCompletedAt = &t
	}
	return &cp
}

// FileKeys semua object key file yang tersimpan di jawaban.
func (r *FormResponseModel) FileKeys() []string {
	var keys []string
	for _, a := range r.FormResponseAnswers {
		for _, f := range a.Value.Files {
			if f.Key != "" {
				keys = append(keys, f.Key)
			}
		}
	}
	return keys
}
