package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/helpers/apperror"
)

/*
Kebijakan edit pertanyaan:
  - form belum punya response: bebas tambah / ubah / hapus / urutkan ulang.
  - sudah ada response: pertanyaan lama dibekukan, hanya boleh tambah pertanyaan opsional.
*/

func (s *FormService) hasResponses(ctx context.Context, formID uuid.UUID) (bool, error) {
	counts, err := s.store.CountResponses(ctx, []uuid.UUID{formID})
	if err != nil {
		return false, err
	}
	return counts[formID] > 0, nil
}

func (s *FormService) ensureNotFrozen(ctx context.Context, formID uuid.UUID) error {
	frozen, err := s.hasResponses(ctx, formID)
	if err != nil {
		return err
	}
	if frozen {
		return apperror.Conflict("form", formID, "questions are frozen once the form has responses")
	}
	return nil
}

func (s *FormService) AddQuestion(ctx context.Context, ownerID, formID uuid.UUID, in QuestionInput) (*model.FormQuestionModel, error) {
	f, err := s.RequireOwner(ctx, ownerID, formID)
	if err != nil {
		return nil, err
	}
	if in.Required {
		frozen, err := s.hasResponses(ctx, formID)
		if err != nil {
			return nil, err
		}
		if frozen {
			return nil, apperror.Conflict("form", formID, "only optional questions can be added once the form has responses")
		}
	}

	q := s.buildQuestion(formID, in)
	if in.Order == nil {
		q.FormQuestionOrder = f.NextOrder()
	}
	set := append(f.OrderedQuestions(), q)
	if err := model.ValidateQuestionSet(set); err != nil {
		return nil, apperror.Invalid(nil, "question", err.Error())
	}
	if err := s.store.CreateQuestion(ctx, &q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	log.Printf("[FormService] question added form=%s question=%s type=%s", formID, q.FormQuestionID, q.FormQuestionType)
	return &q, nil
}

// UpdateQuestion mengganti seluruh definisi pertanyaan (semantik PUT).
func (s *FormService) UpdateQuestion(ctx context.Context, ownerID, formID, questionID uuid.UUID, in QuestionInput) (*model.FormQuestionModel, error) {
	f, err := s.RequireOwner(ctx, ownerID, formID)
	if err != nil {
		return nil, err
	}
	current, ok := f.Question(questionID)
	if !ok {
		return nil, apperror.NotFound("question", questionID)
	}
	if err := s.ensureNotFrozen(ctx, formID); err != nil {
		return nil, err
	}

	q := s.buildQuestion(formID, in)
	q.FormQuestionID = questionID
	q.FormQuestionCreatedAt = current.FormQuestionCreatedAt
	q.FormQuestionUpdatedAt = s.now()
	if in.Order == nil {
		q.FormQuestionOrder = current.FormQuestionOrder
	}

	set := f.OrderedQuestions()
	for i := range set {
		if set[i].FormQuestionID == questionID {
			set[i] = q
		}
	}
	if err := model.ValidateQuestionSet(set); err != nil {
		return nil, apperror.Invalid(questionID, "question", err.Error())
	}
	if err := s.store.SaveQuestion(ctx, &q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return &q, nil
}

func (s *FormService) DeleteQuestion(ctx context.Context, ownerID, formID, questionID uuid.UUID) error {
	f, err := s.RequireOwner(ctx, ownerID, formID)
	if err != nil {
		return err
	}
	if _, ok := f.Question(questionID); !ok {
		return apperror.NotFound("question", questionID)
	}
	if err := s.ensureNotFrozen(ctx, formID); err != nil {
		return err
	}
	if err := s.store.DeleteQuestion(ctx, formID, questionID); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// ReorderQuestions: ids harus permutasi lengkap pertanyaan form; posisi di slice = order baru.
func (s *FormService) ReorderQuestions(ctx context.Context, ownerID, formID uuid.UUID, ids []uuid.UUID) (*model.FormModel, error) {
	f, err := s.RequireOwner(ctx, ownerID, formID)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(f.FormQuestions) {
		return nil, apperror.Invalid(nil, "order", fmt.Sprintf("expected %d question ids, got %d", len(f.FormQuestions), len(ids)))
	}
	order := make(map[uuid.UUID]int, len(ids))
	for i, id := range ids {
		if _, ok := f.Question(id); !ok {
			return nil, apperror.Invalid(id, "order", "question does not belong to this form")
		}
		if _, dup := order[id]; dup {
			return nil, apperror.Invalid(id, "order", "question listed twice")
		}
		order[id] = i
	}
	if err := s.ensureNotFrozen(ctx, formID); err != nil {
		return nil, err
	}
	if err := s.store.ReorderQuestions(ctx, formID, order); err != nil {
		return nil, fmt.Errorf("reorder questions: %w", err)
	}
	return s.store.GetFormWithQuestions(ctx, formID)
}
