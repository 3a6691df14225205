package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/helpers/apperror"
)

func ptr[T any](v T) *T { return &v }

func question(t formModel.QuestionType, required bool) *formModel.FormQuestionModel {
	return &formModel.FormQuestionModel{
		FormQuestionID:       uuid.New(),
		FormQuestionTitle:    string(t),
		FormQuestionType:     t,
		FormQuestionRequired: required,
	}
}

func ruleOf(t *testing.T, err error) string {
	t.Helper()
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Rule
}

func parse(q *formModel.FormQuestionModel, raw string) error {
	_, err := ParseAnswer(q, json.RawMessage(raw))
	return err
}

func TestRequiredComesFirst(t *testing.T) {
	q := question(formModel.QuestionTypeNumber, true)
	q.FormQuestionRules.Min = ptr(1.0)

	assert.Equal(t, RuleRequired, ruleOf(t, parse(q, `null`)))
	assert.Equal(t, RuleRequired, ruleOf(t, parse(q, `""`)))

	q.FormQuestionRequired = false
	assert.NoError(t, parse(q, `null`))
}

func TestAgeRangeScenario(t *testing.T) {
	age := question(formModel.QuestionTypeNumber, true)
	age.FormQuestionRules = formModel.ValidationRules{Min: ptr(0.0), Max: ptr(120.0)}

	err := parse(age, `150`)
	assert.Equal(t, RuleMax, ruleOf(t, err))
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, age.FormQuestionID.String(), ve.QuestionID)

	assert.Equal(t, RuleMin, ruleOf(t, parse(age, `-1`)))
	assert.NoError(t, parse(age, `30`))
	assert.Equal(t, RuleType, ruleOf(t, parse(age, `"thirty"`)))
}

func TestTextRules(t *testing.T) {
	q := question(formModel.QuestionTypeShortText, false)
	q.FormQuestionRules = formModel.ValidationRules{
		MinLength: ptr(2),
		MaxLength: ptr(5),
		Pattern:   ptr(`^[A-Z]`),
	}

	assert.Equal(t, RuleMinLength, ruleOf(t, parse(q, `"A"`)))
	assert.Equal(t, RuleMaxLength, ruleOf(t, parse(q, `"Abcdef"`)))
	assert.Equal(t, RulePattern, ruleOf(t, parse(q, `"abc"`)))
	assert.NoError(t, parse(q, `"Ann"`))
	assert.NoError(t, parse(q, `"Añejo"`), "length counts runes")
}

func TestFormatRules(t *testing.T) {
	email := question(formModel.QuestionTypeEmail, false)
	assert.Equal(t, RuleEmail, ruleOf(t, parse(email, `"not-an-email"`)))
	assert.NoError(t, parse(email, `"ann@example.com"`))

	email.FormQuestionRules.MaxLength = ptr(5)
	assert.Equal(t, RuleMaxLength, ruleOf(t, parse(email, `"ann@example.com"`)), "shape before length")

	url := question(formModel.QuestionTypeURL, false)
	assert.Equal(t, RuleURL, ruleOf(t, parse(url, `"example.com/page"`)))
	assert.NoError(t, parse(url, `"https://example.com/page"`))

	phone := question(formModel.QuestionTypePhone, false)
	assert.Equal(t, RulePhone, ruleOf(t, parse(phone, `"call me"`)))
	assert.NoError(t, parse(phone, `"+62 812-3456-7890"`))

	date := question(formModel.QuestionTypeDate, false)
	assert.Equal(t, RuleDate, ruleOf(t, parse(date, `"2024-02-30"`)))
	assert.NoError(t, parse(date, `"2024-02-29"`))

	clock := question(formModel.QuestionTypeTime, false)
	assert.Equal(t, RuleTime, ruleOf(t, parse(clock, `"25:00"`)))
	assert.NoError(t, parse(clock, `"09:30"`))
	assert.NoError(t, parse(clock, `"09:30:15"`))
}

func TestChoiceMembership(t *testing.T) {
	single := question(formModel.QuestionTypeSingleChoice, true)
	single.FormQuestionOptions = pq.StringArray{"red", "green"}
	assert.Equal(t, RuleOptions, ruleOf(t, parse(single, `"blue"`)))
	assert.NoError(t, parse(single, `"red"`))

	multi := question(formModel.QuestionTypeMultipleChoice, true)
	multi.FormQuestionOptions = pq.StringArray{"a", "b", "c"}
	assert.Equal(t, RuleRequired, ruleOf(t, parse(multi, `[]`)))
	assert.Equal(t, RuleOptions, ruleOf(t, parse(multi, `["a","x"]`)))
	assert.Equal(t, RuleOptions, ruleOf(t, parse(multi, `["a","a"]`)))
	assert.Equal(t, RuleType, ruleOf(t, parse(multi, `"a"`)))
	assert.NoError(t, parse(multi, `["a","c"]`))
}

func TestBooleanIsStrict(t *testing.T) {
	q := question(formModel.QuestionTypeBoolean, true)
	assert.Equal(t, RuleType, ruleOf(t, parse(q, `"true"`)))
	assert.Equal(t, RuleType, ruleOf(t, parse(q, `1`)))
	assert.NoError(t, parse(q, `false`))
}

func TestRatingMustBeWhole(t *testing.T) {
	q := question(formModel.QuestionTypeRating, false)
	q.FormQuestionRules = formModel.ValidationRules{Min: ptr(1.0), Max: ptr(5.0)}
	assert.Equal(t, RuleType, ruleOf(t, parse(q, `3.5`)))
	assert.Equal(t, RuleMax, ruleOf(t, parse(q, `6`)))
	assert.NoError(t, parse(q, `4`))
}

func TestKindMismatchOnDirectValue(t *testing.T) {
	q := question(formModel.QuestionTypeNumber, false)
	err := ValidateAnswer(q, model.TextValue("12"))
	assert.Equal(t, RuleType, ruleOf(t, err))
}

func TestFileAnswerDelegatesToFileRules(t *testing.T) {
	q := question(formModel.QuestionTypeFileUpload, true)
	q.FormQuestionFile = formModel.FileRules{MaxSize: ptr(int64(1024)), AllowedTypes: pq.StringArray{"image/png"}}

	err := ValidateAnswer(q, model.FilesValue(model.FileRef{Name: "big.png", Size: 2048, MimeType: "image/png"}))
	var tooLarge *apperror.FileTooLargeError
	assert.ErrorAs(t, err, &tooLarge)

	assert.NoError(t, ValidateAnswer(q, model.FilesValue(model.FileRef{Name: "ok.png", Size: 10, MimeType: "image/png"})))
}
