// file: internals/features/forms/responses/model/answer_value.go
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	formModel "triddle_backend/internals/features/forms/forms/model"
)

// ValueKind adalah tag dari AnswerValue. Satu tipe pertanyaan selalu
// dipetakan ke tepat satu kind (lihat KindFor).
type ValueKind string

const (
	ValueKindEmpty   ValueKind = "empty"
	ValueKindText    ValueKind = "text"
	ValueKindNumber  ValueKind = "number"
	ValueKindBoolean ValueKind = "boolean"
	ValueKindChoices ValueKind = "choices"
	ValueKindFiles   ValueKind = "files"
)

type FileRef struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

type AnswerValue struct {
	Kind    ValueKind `json:"kind"`
	Text    string    `json:"text,omitempty"`
	Number  *float64  `json:"number,omitempty"`
	Boolean *bool     `json:"boolean,omitempty"`
	Choices []string  `json:"choices,omitempty"`
	Files   []FileRef `json:"files,omitempty"`
}

type Answer struct {
	QuestionID uuid.UUID   `json:"question_id"`
	Value      AnswerValue `json:"value"`
	TimeSpent  int64       `json:"time_spent"`
	AnsweredAt time.Time   `json:"answered_at"`
}

func (a Answer) clone() Answer {
	cp := a
	if a.Value.Number != nil {
		n := *a.Value.Number
		cp.Value.Number = &n
	}
	if a.Value.Boolean != nil {
		b := *a.Value.Boolean
		cp.Value.Boolean = &b
	}
	if a.Value.Choices != nil {
		cp.Value.Choices = append([]string(nil), a.Value.Choices...)
	}
	if a.Value.Files != nil {
		cp.Value.Files = append([]FileRef(nil), a.Value.Files...)
	}
	return cp
}

func TextValue(s string) AnswerValue { return AnswerValue{Kind: ValueKindText, Text: s} }

func NumberValue(n float64) AnswerValue { return AnswerValue{Kind: ValueKindNumber, Number: &n} }

func BooleanValue(b bool) AnswerValue { return AnswerValue{Kind: ValueKindBoolean, Boolean: &b} }

func ChoicesValue(c ...string) AnswerValue { return AnswerValue{Kind: ValueKindChoices, Choices: c} }

func FilesValue(f ...FileRef) AnswerValue { return AnswerValue{Kind: ValueKindFiles, Files: f} }

func (v AnswerValue) IsEmpty() bool {
	switch v.Kind {
	case ValueKindText:
		return strings.TrimSpace(v.Text) == ""
	case ValueKindNumber:
		return v.Number == nil
	case ValueKindBoolean:
		return v.Boolean == nil
	case ValueKindChoices:
		return len(v.Choices) == 0
	case ValueKindFiles:
		return len(v.Files) == 0
	default:
		return true
	}
}

// KindFor: tipe pertanyaan -> kind nilai jawaban.
func KindFor(t formModel.QuestionType) ValueKind {
	switch t {
	case formModel.QuestionTypeShortText, formModel.QuestionTypeLongText, formModel.QuestionTypeEmail,
		formModel.QuestionTypePhone, formModel.QuestionTypeURL, formModel.QuestionTypeSingleChoice,
		formModel.QuestionTypeDropdown, formModel.QuestionTypeDate, formModel.QuestionTypeTime:
		return ValueKindText
	case formModel.QuestionTypeNumber, formModel.QuestionTypeRating:
		return ValueKindNumber
	case formModel.QuestionTypeBoolean:
		return ValueKindBoolean
	case formModel.QuestionTypeMultipleChoice:
		return ValueKindChoices
	case formModel.QuestionTypeFileUpload:
		return ValueKindFiles
	}
	return ValueKindEmpty
}

// ErrValueShape dikembalikan DecodeAnswerValue kalau JSON tidak cocok dengan kind pertanyaan.
var ErrValueShape = errors.New("value does not match question type")

// DecodeAnswerValue membaca nilai mentah dari client sesuai tipe pertanyaan.
// null, "", [] dan input kosong menjadi ValueKindEmpty (dicek required oleh validator).
func DecodeAnswerValue(t formModel.QuestionType, raw json.RawMessage) (AnswerValue, error) {
	trimmed := bytes.TrimSpace(raw)
	if isEmptyJSON(trimmed) {
		return AnswerValue{Kind: ValueKindEmpty}, nil
	}

	switch KindFor(t) {
	case ValueKindText:
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: expected string", ErrValueShape)
		}
		if strings.TrimSpace(s) == "" {
			return AnswerValue{Kind: ValueKindEmpty}, nil
		}
		return TextValue(s), nil

	case ValueKindNumber:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: expected number", ErrValueShape)
		}
		return NumberValue(n), nil

	case ValueKindBoolean:
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: expected true or false", ErrValueShape)
		}
		return BooleanValue(b), nil

	case ValueKindChoices:
		var c []string
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: expected array of strings", ErrValueShape)
		}
		if len(c) == 0 {
			return AnswerValue{Kind: ValueKindEmpty}, nil
		}
		return ChoicesValue(c...), nil

	case ValueKindFiles:
		var f []FileRef
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return AnswerValue{}, fmt.Errorf("%w: expected array of files", ErrValueShape)
		}
		if len(f) == 0 {
			return AnswerValue{Kind: ValueKindEmpty}, nil
		}
		return FilesValue(f...), nil
	}
	return AnswerValue{}, fmt.Errorf("%w: unsupported question type %q", ErrValueShape, t)
}

func isEmptyJSON(b []byte) bool {
	switch string(b) {
	case "", "null", `""`, "[]":
		return true
	}
	return false
}
