package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/model"
)

// ErrStaleVersion: UpdateVersioned kalah race (version di DB sudah berubah).
var ErrStaleVersion = errors.New("response version is stale")

// ErrSessionTaken: Create bentrok dengan record incomplete lain untuk (form, session) yang sama.
var ErrSessionTaken = errors.New("session already has an open response")

/* ==========================
   Collaborators
========================== */

// FormReader memuat form beserta pertanyaannya. Form yang tidak ada -> *apperror.NotFoundError.
type FormReader interface {
	GetFormWithQuestions(ctx context.Context, formID uuid.UUID) (*formModel.FormModel, error)
}

type ListFilter struct {
	Status  model.ResponseStatus
	Limit   int
	Offset  int
	SortAsc bool
}

// ResponseStore adalah persistence untuk FormResponseModel.
// GetByID untuk id yang tidak ada -> *apperror.NotFoundError.
// FindOpenBySession mengembalikan (nil, nil) kalau tidak ada record incomplete.
type ResponseStore interface {
	FindOpenBySession(ctx context.Context, formID uuid.UUID, session string) (*model.FormResponseModel, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.FormResponseModel, error)
	Create(ctx context.Context, r *model.FormResponseModel) error
	UpdateVersioned(ctx context.Context, r *model.FormResponseModel, expected int64) error
	ListIdleIncomplete(ctx context.Context, idleBefore time.Time, limit int) ([]model.FormResponseModel, error)
	ListByForm(ctx context.Context, formID uuid.UUID, f ListFilter) ([]model.FormResponseModel, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChangeNotifier dipanggil setelah record sebuah form berubah (cache analytics).
type ChangeNotifier interface {
	ResponseChanged(formID uuid.UUID)
}

// BlobStore menyimpan file jawaban. Put mengembalikan URL publik object.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, keys []string) error
}

type nopNotifier struct{}

func (nopNotifier) ResponseChanged(uuid.UUID) {}
