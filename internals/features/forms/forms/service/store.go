package service

import (
	"context"
	"io"

	"github.com/google/uuid"

	"triddle_backend/internals/features/forms/forms/model"
	helperOSS "triddle_backend/internals/helpers/oss"
)

type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// FormStore persistence form + pertanyaan. GetFormWithQuestions / GetBySlug
// mengembalikan apperror.NotFoundError kalau tidak ada (atau sudah soft-delete).
type FormStore interface {
	Create(ctx context.Context, f *model.FormModel) error
	SlugTaken(ctx context.Context, slug string) (bool, error)
	GetFormWithQuestions(ctx context.Context, id uuid.UUID) (*model.FormModel, error)
	GetBySlug(ctx context.Context, slug string) (*model.FormModel, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, f ListFilter) ([]model.FormModel, int64, error)
	CountResponses(ctx context.Context, formIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	CreateQuestion(ctx context.Context, q *model.FormQuestionModel) error
	SaveQuestion(ctx context.Context, q *model.FormQuestionModel) error
	DeleteQuestion(ctx context.Context, formID, questionID uuid.UUID) error
	ReorderQuestions(ctx context.Context, formID uuid.UUID, order map[uuid.UUID]int) error
}

// ImageStore: OSS di production, MemoryBlobStore di dev/test.
type ImageStore interface {
	PutWebP(ctx context.Context, dir, name string, src io.Reader, opt helperOSS.WebPOptions) (url string, key string, err error)
	Delete(ctx context.Context, keys []string) error
}
