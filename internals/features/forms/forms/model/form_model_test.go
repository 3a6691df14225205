package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }

func TestValidateShape(t *testing.T) {
	t.Run("choice question needs options", func(t *testing.T) {
		q := FormQuestionModel{FormQuestionTitle: "Color", FormQuestionType: QuestionTypeDropdown}
		assert.Error(t, q.ValidateShape())

		q.FormQuestionOptions = pq.StringArray{"red", "blue"}
		assert.NoError(t, q.ValidateShape())
	})

	t.Run("duplicate options rejected", func(t *testing.T) {
		q := FormQuestionModel{
			FormQuestionTitle:   "Color",
			FormQuestionType:    QuestionTypeSingleChoice,
			FormQuestionOptions: pq.StringArray{"red", "red"},
		}
		assert.Error(t, q.ValidateShape())
	})

	t.Run("file rules only on file upload", func(t *testing.T) {
		q := FormQuestionModel{
			FormQuestionTitle: "Name",
			FormQuestionType:  QuestionTypeShortText,
			FormQuestionFile:  FileRules{MaxSize: int64Ptr(1024)},
		}
		assert.Error(t, q.ValidateShape())

		q.FormQuestionType = QuestionTypeFileUpload
		assert.NoError(t, q.ValidateShape())
	})

	t.Run("options rejected on non choice", func(t *testing.T) {
		q := FormQuestionModel{
			FormQuestionTitle:   "Age",
			FormQuestionType:    QuestionTypeNumber,
			FormQuestionOptions: pq.StringArray{"1"},
		}
		assert.Error(t, q.ValidateShape())
	})

	t.Run("inverted bounds and bad pattern", func(t *testing.T) {
		q := FormQuestionModel{
			FormQuestionTitle: "Age",
			FormQuestionType:  QuestionTypeNumber,
			FormQuestionRules: ValidationRules{Min: floatPtr(10), Max: floatPtr(1)},
		}
		assert.Error(t, q.ValidateShape())

		q = FormQuestionModel{
			FormQuestionTitle: "Name",
			FormQuestionType:  QuestionTypeShortText,
			FormQuestionRules: ValidationRules{MinLength: intPtr(5), MaxLength: intPtr(2)},
		}
		assert.Error(t, q.ValidateShape())

		q.FormQuestionRules = ValidationRules{Pattern: strPtr("([a-z")}
		assert.Error(t, q.ValidateShape())
	})

	t.Run("unknown type", func(t *testing.T) {
		q := FormQuestionModel{FormQuestionTitle: "X", FormQuestionType: "slider"}
		assert.Error(t, q.ValidateShape())
	})
}

func TestValidateQuestionSetRejectsDuplicateOrder(t *testing.T) {
	qs := []FormQuestionModel{
		{FormQuestionTitle: "A", FormQuestionType: QuestionTypeShortText, FormQuestionOrder: 0},
		{FormQuestionTitle: "B", FormQuestionType: QuestionTypeShortText, FormQuestionOrder: 0},
	}
	require.Error(t, ValidateQuestionSet(qs))

	qs[1].FormQuestionOrder = 1
	require.NoError(t, ValidateQuestionSet(qs))
}

func TestOrderedQuestionsAndLookup(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	f := FormModel{FormQuestions: []FormQuestionModel{
		{FormQuestionID: a, FormQuestionOrder: 2},
		{FormQuestionID: b, FormQuestionOrder: 0},
		{FormQuestionID: c, FormQuestionOrder: 1},
	}}

	ordered := f.OrderedQuestions()
	require.Len(t, ordered, 3)
	assert.Equal(t, []uuid.UUID{b, c, a}, []uuid.UUID{ordered[0].FormQuestionID, ordered[1].FormQuestionID, ordered[2].FormQuestionID})
	assert.Equal(t, a, f.FormQuestions[0].FormQuestionID, "original slice untouched")

	q, ok := f.Question(c)
	require.True(t, ok)
	assert.Equal(t, 1, q.FormQuestionOrder)

	_, ok = f.Question(uuid.New())
	assert.False(t, ok)
	assert.Equal(t, 3, f.NextOrder())
}

func TestSettingsRoundTrip(t *testing.T) {
	f := FormModel{}
	s := DefaultFormSettings()
	s.Theme.PrimaryColor = "#123456"
	f.SetSettings(s)
	assert.Equal(t, "#123456", f.Settings().Theme.PrimaryColor)
	assert.True(t, f.Settings().IsPublic)
}
