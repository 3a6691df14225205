// file: internals/features/forms/responses/validation/answer_validator.go
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/helpers/apperror"
)

// Nama rule yang dikirim balik ke client.
const (
	RuleRequired  = "required"
	RuleType      = "type"
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleMin       = "min"
	RuleMax       = "max"
	RulePattern   = "pattern"
	RuleEmail     = "email"
	RuleURL       = "url"
	RulePhone     = "phone"
	RuleDate      = "date"
	RuleTime      = "time"
	RuleOptions   = "options"
	RuleTimeSpent = "time_spent"
	RuleMultiple  = "multiple"
)

var validate = validator.New()

var (
	rePhone      = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,24}$`)
	patternCache sync.Map // string -> *regexp.Regexp
)

var timeLayouts = []string{"15:04", "15:04:05"}

// ParseAnswer decode nilai mentah sesuai tipe pertanyaan lalu menjalankan ValidateAnswer.
func ParseAnswer(q *formModel.FormQuestionModel, raw json.RawMessage) (model.AnswerValue, error) {
	v, err := model.DecodeAnswerValue(q.FormQuestionType, raw)
	if errors.Is(err, model.ErrValueShape) {
		return model.AnswerValue{}, apperror.Invalid(q.FormQuestionID, RuleType, err.Error())
	}
	if err != nil {
		return model.AnswerValue{}, err
	}
	return v, ValidateAnswer(q, v)
}

// ValidateAnswer menjalankan rule dengan urutan tetap:
// required -> type-shape -> range/pattern -> membership.
// Hanya rule pertama yang gagal yang dikembalikan.
func ValidateAnswer(q *formModel.FormQuestionModel, v model.AnswerValue) error {
	if v.IsEmpty() {
		if q.FormQuestionRequired {
			return apperror.Invalid(q.FormQuestionID, RuleRequired, "this question is required")
		}
		return nil
	}

	if want := model.KindFor(q.FormQuestionType); v.Kind != want {
		return apperror.Invalid(q.FormQuestionID, RuleType, fmt.Sprintf("expected a %s value", want))
	}

	switch q.FormQuestionType {
	case formModel.QuestionTypeShortText, formModel.QuestionTypeLongText:
		return checkText(q, v.Text)

	case formModel.QuestionTypeEmail:
		if err := validate.Var(v.Text, "email"); err != nil {
			return apperror.Invalid(q.FormQuestionID, RuleEmail, "must be a valid email address")
		}
		return checkText(q, v.Text)

	case formModel.QuestionTypeURL:
		if err := validate.Var(v.Text, "url"); err != nil {
			return apperror.Invalid(q.FormQuestionID, RuleURL, "must be an absolute URL")
		}
		return checkText(q, v.Text)

	case formModel.QuestionTypePhone:
		if !validPhone(v.Text) {
			return apperror.Invalid(q.FormQuestionID, RulePhone, "must be a phone number")
		}
		return checkText(q, v.Text)

	case formModel.QuestionTypeNumber, formModel.QuestionTypeRating:
		n := *v.Number
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return apperror.Invalid(q.FormQuestionID, RuleType, "must be a finite number")
		}
		if q.FormQuestionType == formModel.QuestionTypeRating && n != math.Trunc(n) {
			return apperror.Invalid(q.FormQuestionID, RuleType, "rating must be a whole number")
		}
		return checkRange(q, n)

	case formModel.QuestionTypeSingleChoice, formModel.QuestionTypeDropdown:
		if !q.HasOption(v.Text) {
			return apperror.Invalid(q.FormQuestionID, RuleOptions, fmt.Sprintf("%q is not one of the options", v.Text))
		}
		return nil

	case formModel.QuestionTypeMultipleChoice:
		seen := make(map[string]struct{}, len(v.Choices))
		for _, c := range v.Choices {
			if _, dup := seen[c]; dup {
				return apperror.Invalid(q.FormQuestionID, RuleOptions, fmt.Sprintf("%q selected twice", c))
			}
			seen[c] = struct{}{}
			if !q.HasOption(c) {
				return apperror.Invalid(q.FormQuestionID, RuleOptions, fmt.Sprintf("%q is not one of the options", c))
			}
		}
		return nil

	case formModel.QuestionTypeBoolean:
		// shape sudah dijamin oleh kind
		return nil

	case formModel.QuestionTypeDate:
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(v.Text)); err != nil {
			return apperror.Invalid(q.FormQuestionID, RuleDate, "must be a date (YYYY-MM-DD)")
		}
		return nil

	case formModel.QuestionTypeTime:
		if !validClock(v.Text) {
			return apperror.Invalid(q.FormQuestionID, RuleTime, "must be a time (HH:MM)")
		}
		return nil

	case formModel.QuestionTypeFileUpload:
		return ValidateFiles(q, CandidatesFromRefs(v.Files))
	}

	return apperror.Invalid(q.FormQuestionID, RuleType, fmt.Sprintf("unsupported question type %q", q.FormQuestionType))
}

func checkText(q *formModel.FormQuestionModel, s string) error {
	r := q.FormQuestionRules
	n := utf8.RuneCountInString(s)
	if r.MinLength != nil && n < *r.MinLength {
		return apperror.Invalid(q.FormQuestionID, RuleMinLength, fmt.Sprintf("must be at least %d characters", *r.MinLength))
	}
	if r.MaxLength != nil && n > *r.MaxLength {
		return apperror.Invalid(q.FormQuestionID, RuleMaxLength, fmt.Sprintf("must be at most %d characters", *r.MaxLength))
	}
	if r.Pattern != nil && strings.TrimSpace(*r.Pattern) != "" {
		re, err := compilePattern(*r.Pattern)
		if err != nil {
			return apperror.Invalid(q.FormQuestionID, RulePattern, "question pattern is invalid")
		}
		if !re.MatchString(s) {
			return apperror.Invalid(q.FormQuestionID, RulePattern, "does not match the expected format")
		}
	}
	return nil
}

func checkRange(q *formModel.FormQuestionModel, n float64) error {
	r := q.FormQuestionRules
	if r.Min != nil && n < *r.Min {
		return apperror.Invalid(q.FormQuestionID, RuleMin, fmt.Sprintf("must be >= %v", *r.Min))
	}
	if r.Max != nil && n > *r.Max {
		return apperror.Invalid(q.FormQuestionID, RuleMax, fmt.Sprintf("must be <= %v", *r.Max))
	}
	return nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if v, ok := patternCache.Load(p); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patternCache.Store(p, re)
	return re, nil
}

func validPhone(s string) bool {
	s = strings.TrimSpace(s)
	if !rePhone.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 6 && digits <= 15
}

func validClock(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
