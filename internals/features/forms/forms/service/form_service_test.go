package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/helpers/apperror"
	helperOSS "triddle_backend/internals/helpers/oss"
)

/* ==========================
   Stub store
========================== */

type stubStore struct {
	mu        sync.Mutex
	forms     map[uuid.UUID]*model.FormModel
	responses map[uuid.UUID]int64
	// duplicateOnce: Create gagal ErrDuplicatedKey sekian kali
	duplicateOnce int
	slugs         []string
}

func newStubStore() *stubStore {
	return &stubStore{forms: map[uuid.UUID]*model.FormModel{}, responses: map[uuid.UUID]int64{}}
}

func copyForm(f *model.FormModel) *model.FormModel {
	cp := *f
	cp.FormQuestions = append([]model.FormQuestionModel(nil), f.FormQuestions...)
	return &cp
}

func (s *stubStore) Create(_ context.Context, f *model.FormModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slugs = append(s.slugs, f.FormSlug)
	if s.duplicateOnce > 0 {
		s.duplicateOnce--
		return gorm.ErrDuplicatedKey
	}
	s.forms[f.FormID] = copyForm(f)
	return nil
}

func (s *stubStore) SlugTaken(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if strings.EqualFold(f.FormSlug, slug) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) GetFormWithQuestions(_ context.Context, id uuid.UUID) (*model.FormModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok {
		return nil, apperror.NotFound("form", id)
	}
	cp := copyForm(f)
	cp.FormQuestions = cp.OrderedQuestions()
	return cp, nil
}

func (s *stubStore) GetBySlug(_ context.Context, slug string) (*model.FormModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.forms {
		if strings.EqualFold(f.FormSlug, slug) {
			return copyForm(f), nil
		}
	}
	return nil, apperror.NotFound("form", slug)
}

func (s *stubStore) ListByOwner(_ context.Context, ownerID uuid.UUID, f ListFilter) ([]model.FormModel, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FormModel
	for _, row := range s.forms {
		if row.FormOwnerID == ownerID && strings.Contains(strings.ToLower(row.FormTitle), strings.ToLower(f.Query)) {
			out = append(out, *copyForm(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FormTitle < out[j].FormTitle })
	return out, int64(len(out)), nil
}

func (s *stubStore) CountResponses(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uuid.UUID]int64{}
	for _, id := range ids {
		if n := s.responses[id]; n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (s *stubStore) UpdateColumns(_ context.Context, id uuid.UUID, cols map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[id]
	if !ok {
		return apperror.NotFound("form", id)
	}
	for k, v := range cols {
		switch k {
		case "form_title":
			f.FormTitle = v.(string)
		case "form_is_active":
			f.FormIsActive = v.(bool)
		case "form_settings":
			f.FormSettings = v.(datatypes.JSONType[model.FormSettings])
		case "form_password_hash":
			if v == nil {
				f.FormPasswordHash = nil
			} else {
				h := v.(string)
				f.FormPasswordHash = &h
			}
		}
	}
	return nil
}

func (s *stubStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	return nil
}

func (s *stubStore) CreateQuestion(_ context.Context, q *model.FormQuestionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.forms[q.FormQuestionFormID]
	f.FormQuestions = append(f.FormQuestions, *q)
	return nil
}

func (s *stubStore) SaveQuestion(_ context.Context, q *model.FormQuestionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.forms[q.FormQuestionFormID]
	for i := range f.FormQuestions {
		if f.FormQuestions[i].FormQuestionID == q.FormQuestionID {
			f.FormQuestions[i] = *q
			return nil
		}
	}
	return apperror.NotFound("question", q.FormQuestionID)
}

func (s *stubStore) DeleteQuestion(_ context.Context, formID, questionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.forms[formID]
	out := f.FormQuestions[:0]
	for _, q := range f.FormQuestions {
		if q.FormQuestionID != questionID {
			out = append(out, q)
		}
	}
	f.FormQuestions = out
	return nil
}

func (s *stubStore) ReorderQuestions(_ context.Context, formID uuid.UUID, order map[uuid.UUID]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.forms[formID]
	for i := range f.FormQuestions {
		if pos, ok := order[f.FormQuestions[i].FormQuestionID]; ok {
			f.FormQuestions[i].FormQuestionOrder = pos
		}
	}
	return nil
}

/* ==========================
   Fixtures
========================== */

var owner = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func newTestService(store *stubStore, images ImageStore) *FormService {
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return NewFormService(store, images, Options{
		Now:          func() time.Time { clock = clock.Add(time.Second); return clock },
		PasswordCost: bcrypt.MinCost,
	})
}

func feedbackInput() CreateInput {
	return CreateInput{
		Title: "Customer Feedback",
		Questions: []QuestionInput{
			{Title: "Name", Type: model.QuestionTypeShortText, Required: true},
			{Title: "Plan", Type: model.QuestionTypeDropdown, Options: pq.StringArray{"free", "pro"}},
		},
	}
}

func createForm(t *testing.T, svc *FormService, in CreateInput) *model.FormModel {
	t.Helper()
	f, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	return f
}

/* ==========================
   Tests
========================== */

func TestCreateAssignsSlugAndOrder(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)

	f := createForm(t, svc, feedbackInput())
	assert.Equal(t, "customer-feedback", f.FormSlug)
	assert.True(t, f.FormIsActive)
	assert.True(t, f.Settings().IsPublic)
	require.Len(t, f.FormQuestions, 2)
	assert.Equal(t, 0, f.FormQuestions[0].FormQuestionOrder)
	assert.Equal(t, 1, f.FormQuestions[1].FormQuestionOrder)
	assert.Equal(t, f.FormID, f.FormQuestions[1].FormQuestionFormID)

	second := createForm(t, svc, feedbackInput())
	assert.Equal(t, "customer-feedback-2", second.FormSlug)
}

func TestCreateRetriesOnDuplicateSlug(t *testing.T) {
	store := newStubStore()
	store.duplicateOnce = 1
	svc := newTestService(store, nil)

	f := createForm(t, svc, feedbackInput())
	require.Len(t, store.slugs, 2)
	assert.Equal(t, "customer-feedback", store.slugs[0])
	assert.True(t, strings.HasPrefix(f.FormSlug, "customer-feedback-"))
	assert.NotEqual(t, "customer-feedback", f.FormSlug)
}

func TestCreateRejectsInvalidQuestions(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	in := feedbackInput()
	in.Questions[1].Options = nil

	_, err := svc.Create(context.Background(), owner, in)
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "form", verr.Rule)

	_, err = svc.Create(context.Background(), owner, CreateInput{Title: "  "})
	require.ErrorAs(t, err, &verr)
}

func TestOwnerChecks(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	f := createForm(t, svc, feedbackInput())

	_, err := svc.RequireOwner(context.Background(), uuid.New(), f.FormID)
	var aerr *apperror.AuthorizationError
	assert.ErrorAs(t, err, &aerr)

	_, err = svc.RequireOwner(context.Background(), owner, uuid.New())
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)

	err = svc.Delete(context.Background(), uuid.New(), f.FormID)
	assert.ErrorAs(t, err, &aerr)
}

func TestListOwnedIncludesResponseCounts(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)
	a := createForm(t, svc, CreateInput{Title: "Alpha"})
	createForm(t, svc, CreateInput{Title: "Beta"})
	store.responses[a.FormID] = 4

	list, total, err := svc.ListOwned(context.Background(), owner, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.EqualValues(t, 4, list[0].ResponseCount)
	assert.EqualValues(t, 0, list[1].ResponseCount)

	list, _, err = svc.ListOwned(context.Background(), owner, ListFilter{Query: "bet"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Beta", list[0].Form.FormTitle)
}

func TestUpdateKeepsThemeImages(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)
	f := createForm(t, svc, feedbackInput())

	settings := f.Settings()
	settings.Theme.CoverURL, settings.Theme.CoverKey = "https://cdn/cover.webp", "forms/cover.webp"
	store.forms[f.FormID].SetSettings(settings)

	title := "Renamed"
	active := false
	updated, err := svc.Update(context.Background(), owner, f.FormID, UpdateInput{
		Title:    &title,
		IsActive: &active,
		Settings: &model.FormSettings{IsPublic: false, Theme: model.FormTheme{PrimaryColor: "#000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FormTitle)
	assert.False(t, updated.FormIsActive)
	assert.False(t, updated.Settings().IsPublic)
	assert.Equal(t, "#000", updated.Settings().Theme.PrimaryColor)
	assert.Equal(t, "forms/cover.webp", updated.Settings().Theme.CoverKey)

	empty := " "
	_, err = svc.Update(context.Background(), owner, f.FormID, UpdateInput{Title: &empty})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestGetPublicAccessRules(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)
	ctx := context.Background()
	stranger := uuid.New()

	in := feedbackInput()
	in.Password = "s3cret"
	f := createForm(t, svc, in)

	var aerr *apperror.AuthorizationError
	_, err := svc.GetPublic(ctx, f.FormSlug, stranger, "")
	assert.ErrorAs(t, err, &aerr)
	_, err = svc.GetPublic(ctx, f.FormSlug, stranger, "wrong")
	assert.ErrorAs(t, err, &aerr)
	got, err := svc.GetPublic(ctx, strings.ToUpper(f.FormSlug), uuid.Nil, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, f.FormID, got.FormID)
	_, err = svc.GetPublic(ctx, f.FormSlug, owner, "")
	assert.NoError(t, err, "owner skips the password")

	none := ""
	_, err = svc.Update(ctx, owner, f.FormID, UpdateInput{Password: &none, Settings: &model.FormSettings{IsPublic: false}})
	require.NoError(t, err)
	_, err = svc.GetPublic(ctx, f.FormSlug, stranger, "")
	assert.ErrorAs(t, err, &aerr, "private form")
	_, err = svc.GetPublic(ctx, f.FormSlug, owner, "")
	assert.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, owner, f.FormID, UpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.GetPublic(ctx, f.FormSlug, owner, "")
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestQuestionsFreezeOnceResponsesExist(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil)
	ctx := context.Background()
	f := createForm(t, svc, feedbackInput())
	nameID := f.FormQuestions[0].FormQuestionID

	// sebelum ada response: bebas
	upd, err := svc.UpdateQuestion(ctx, owner, f.FormID, nameID, QuestionInput{Title: "Full name", Type: model.QuestionTypeShortText, Required: true})
	require.NoError(t, err)
	assert.Equal(t, "Full name", upd.FormQuestionTitle)
	assert.Equal(t, 0, upd.FormQuestionOrder)

	store.responses[f.FormID] = 1
	var cerr *apperror.ConflictError

	_, err = svc.UpdateQuestion(ctx, owner, f.FormID, nameID, QuestionInput{Title: "Nope", Type: model.QuestionTypeShortText})
	assert.ErrorAs(t, err, &cerr)
	assert.ErrorAs(t, svc.DeleteQuestion(ctx, owner, f.FormID, nameID), &cerr)
	_, err = svc.ReorderQuestions(ctx, owner, f.FormID, []uuid.UUID{f.FormQuestions[1].FormQuestionID, nameID})
	assert.ErrorAs(t, err, &cerr)
	_, err = svc.AddQuestion(ctx, owner, f.FormID, QuestionInput{Title: "Email", Type: model.QuestionTypeEmail, Required: true})
	assert.ErrorAs(t, err, &cerr)

	q, err := svc.AddQuestion(ctx, owner, f.FormID, QuestionInput{Title: "Comments", Type: model.QuestionTypeLongText})
	require.NoError(t, err)
	assert.Equal(t, 2, q.FormQuestionOrder)
}

func TestAddQuestionRejectsDuplicateOrder(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	f := createForm(t, svc, feedbackInput())
	order := 1
	_, err := svc.AddQuestion(context.Background(), owner, f.FormID, QuestionInput{Title: "X", Type: model.QuestionTypeBoolean, Order: &order})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReorderQuestions(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	ctx := context.Background()
	f := createForm(t, svc, feedbackInput())
	a, b := f.FormQuestions[0].FormQuestionID, f.FormQuestions[1].FormQuestionID

	got, err := svc.ReorderQuestions(ctx, owner, f.FormID, []uuid.UUID{b, a})
	require.NoError(t, err)
	assert.Equal(t, b, got.FormQuestions[0].FormQuestionID)
	assert.Equal(t, a, got.FormQuestions[1].FormQuestionID)

	var verr *apperror.ValidationError
	_, err = svc.ReorderQuestions(ctx, owner, f.FormID, []uuid.UUID{a})
	assert.ErrorAs(t, err, &verr)
	_, err = svc.ReorderQuestions(ctx, owner, f.FormID, []uuid.UUID{a, a})
	assert.ErrorAs(t, err, &verr)
	_, err = svc.ReorderQuestions(ctx, owner, f.FormID, []uuid.UUID{a, uuid.New()})
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteQuestionUnknown(t *testing.T) {
	svc := newTestService(newStubStore(), nil)
	f := createForm(t, svc, feedbackInput())
	err := svc.DeleteQuestion(context.Background(), owner, f.FormID, uuid.New())
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
	require.NoError(t, svc.DeleteQuestion(context.Background(), owner, f.FormID, f.FormQuestions[1].FormQuestionID))
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: 80, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSetImageReplacesOldObject(t *testing.T) {
	store := newStubStore()
	blobs := helperOSS.NewMemoryBlobStore("https://cdn.test")
	svc := newTestService(store, blobs)
	ctx := context.Background()
	f := createForm(t, svc, feedbackInput())

	first, err := svc.SetImage(ctx, owner, f.FormID, ImageCover, bytes.NewReader(pngImage(t)))
	require.NoError(t, err)
	firstKey := first.Settings().Theme.CoverKey
	assert.True(t, strings.HasSuffix(firstKey, ".webp"))
	assert.True(t, strings.HasPrefix(first.Settings().Theme.CoverURL, "https://cdn.test/forms/"))
	obj, ok := blobs.Get(firstKey)
	require.True(t, ok)
	assert.Equal(t, "image/webp", obj.ContentType)

	second, err := svc.SetImage(ctx, owner, f.FormID, ImageCover, bytes.NewReader(pngImage(t)))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.Settings().Theme.CoverKey)
	_, ok = blobs.Get(firstKey)
	assert.False(t, ok, "previous cover removed")
	assert.Equal(t, 1, blobs.Len())

	_, err = svc.SetImage(ctx, owner, f.FormID, ImageCover, strings.NewReader("not an image"))
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.SetImage(ctx, owner, f.FormID, ImageKind("banner"), bytes.NewReader(pngImage(t)))
	assert.ErrorAs(t, err, &verr)
}

func TestCreatePropagatesStoreErrors(t *testing.T) {
	store := newStubStore()
	store.duplicateOnce = maxSlugInsertTry
	svc := newTestService(store, nil)
	_, err := svc.Create(context.Background(), owner, feedbackInput())
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}
