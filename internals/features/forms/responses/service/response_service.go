package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/features/forms/responses/validation"
	"triddle_backend/internals/helpers/apperror"
)

/* ==========================
   Const & Types
========================== */

const (
	maxVersionRetries  = 3
	sessionTokenBytes  = 24
	blobCleanupTimeout = 10 * time.Second
)

// errNotEligible: record tidak lagi memenuhi syarat operasi internal (dilewati, bukan error).
var errNotEligible = errors.New("response not eligible")

type Options struct {
	Now        func() time.Time
	NewID      func() uuid.UUID
	NewSession func() string
	Notifier   ChangeNotifier
	Blobs      BlobStore
}

type ResponseService struct {
	forms      FormReader
	responses  ResponseStore
	blobs      BlobStore
	notifier   ChangeNotifier
	locks      *keyedLock
	now        func() time.Time
	newID      func() uuid.UUID
	newSession func() string
}

// AnswerInput satu item auto-save.
type AnswerInput struct {
	QuestionID uuid.UUID
	Value      json.RawMessage
	TimeSpent  int64
}

// UploadFile file yang sudah diterima controller tapi belum disimpan.
type UploadFile struct {
	Name     string
	Size     int64
	MimeType string
	Open     func() (io.ReadCloser, error)
}

func NewResponseService(forms FormReader, responses ResponseStore, opts Options) *ResponseService {
	s := &ResponseService{
		forms:      forms,
		responses:  responses,
		blobs:      opts.Blobs,
		notifier:   opts.Notifier,
		locks:      newKeyedLock(),
		now:        opts.Now,
		newID:      opts.NewID,
		newSession: opts.NewSession,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.New
	}
	if s.newSession == nil {
		s.newSession = randomSessionToken
	}
	return s
}

func randomSessionToken() string {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return hex.EncodeToString(b)
}

/* ==========================
   Lifecycle
========================== */

// StartOrResume melanjutkan record incomplete milik session, atau membuat record baru.
// Record abandoned tidak di-resume: session yang sama dapat record baru.
// resumed=true kalau record lama yang dikembalikan.
func (s *ResponseService) StartOrResume(ctx context.Context, formID uuid.UUID, session string, meta model.ResponseMetadata) (*model.FormResponseModel, bool, error) {
	form, err := s.forms.GetFormWithQuestions(ctx, formID)
	if err != nil {
		return nil, false, err
	}
	if !form.FormIsActive {
		return nil, false, apperror.Conflict("form", formID, "form is not accepting responses")
	}

	session = strings.TrimSpace(session)
	if session == "" {
		session = s.newSession()
	}

	unlock := s.locks.Lock("session:" + formID.String() + ":" + session)
	defer unlock()

	for attempt := 0; attempt < maxVersionRetries; attempt++ {
		existing, err := s.responses.FindOpenBySession(ctx, formID, session)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			rec, err := s.mutate(ctx, existing.FormResponseID, func(_ *formModel.FormModel, r *model.FormResponseModel) error {
				if r.FormResponseStatus != model.ResponseStatusIncomplete {
					return errNotEligible
				}
				r.FormResponseLastActivityAt = s.now()
				return nil
			})
			if errors.Is(err, errNotEligible) {
				continue
			}
			if err != nil {
				return nil, false, err
			}
			return rec, true, nil
		}

		now := s.now()
		r := &model.FormResponseModel{
			FormResponseID:             s.newID(),
			FormResponseFormID:         formID,
			FormResponseSessionToken:   session,
			FormResponseAnswers:        datatypes.JSONSlice[model.Answer]{},
			FormResponseStatus:         model.ResponseStatusIncomplete,
			FormResponseStartedAt:      now,
			FormResponseLastActivityAt: now,
			FormResponseVersion:        1,
		}
		r.SetMetadata(meta)

		err = s.responses.Create(ctx, r)
		if errors.Is(err, ErrSessionTaken) {
			// instance lain baru saja membuat record untuk session ini
			continue
		}
		if err != nil {
			return nil, false, err
		}
		log.Printf("[ResponseService] started response=%s form=%s device=%s", r.FormResponseID, formID, r.FormResponseDeviceType)
		s.notifier.ResponseChanged(formID)
		return r, false, nil
	}
	return nil, false, apperror.Conflict("form", formID, "session is being started concurrently, please retry")
}

// SubmitAnswer menyimpan (atau mengganti) jawaban satu pertanyaan.
// Nilai kosong pada pertanyaan opsional menghapus jawaban yang ada.
func (s *ResponseService) SubmitAnswer(ctx context.Context, responseID, questionID uuid.UUID, raw json.RawMessage, timeSpent int64) (*model.FormResponseModel, error) {
	if timeSpent < 0 {
		return nil, apperror.Invalid(questionID, validation.RuleTimeSpent, "time spent cannot be negative")
	}
	return s.mutate(ctx, responseID, func(form *formModel.FormModel, r *model.FormResponseModel) error {
		if err := requireOpen(r); err != nil {
			return err
		}
		q, ok := form.Question(questionID)
		if !ok {
			return apperror.NotFound("question", questionID)
		}

		var value model.AnswerValue
		if q.FormQuestionType == formModel.QuestionTypeFileUpload {
			// file hanya lewat endpoint upload; di sini cuma boleh mengosongkan
			v, err := model.DecodeAnswerValue(q.FormQuestionType, raw)
			if err != nil || !v.IsEmpty() {
				return apperror.Invalid(q.FormQuestionID, validation.RuleType, "files must be uploaded through the files endpoint")
			}
			if err := validation.ValidateAnswer(q, v); err != nil {
				return err
			}
			value = v
		} else {
			v, err := validation.ParseAnswer(q, raw)
			if err != nil {
				return err
			}
			value = v
		}

		s.applyAnswer(form, r, q.FormQuestionID, value, timeSpent)
		return nil
	})
}

// SubmitAnswers menerapkan beberapa jawaban berurutan dan berhenti di kegagalan pertama.
// applied = jumlah jawaban yang sudah tersimpan.
func (s *ResponseService) SubmitAnswers(ctx context.Context, responseID uuid.UUID, inputs []AnswerInput) (rec *model.FormResponseModel, applied int, err error) {
	for i, in := range inputs {
		r, err := s.SubmitAnswer(ctx, responseID, in.QuestionID, in.Value, in.TimeSpent)
		if err != nil {
			return rec, i, err
		}
		rec = r
	}
	if rec == nil {
		rec, err = s.responses.GetByID(ctx, responseID)
		if err != nil {
			return nil, 0, err
		}
	}
	return rec, len(inputs), nil
}

// UploadFiles memvalidasi seluruh batch dulu, baru upload. Object yang sudah
// terupload dihapus lagi kalau upload berikutnya atau penyimpanan record gagal.
func (s *ResponseService) UploadFiles(ctx context.Context, responseID, questionID uuid.UUID, files []UploadFile, timeSpent int64) (*model.FormResponseModel, error) {
	if s.blobs == nil {
		return nil, errors.New("file storage is not configured")
	}
	if timeSpent < 0 {
		return nil, apperror.Invalid(questionID, validation.RuleTimeSpent, "time spent cannot be negative")
	}

	cur, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if err := requireOpen(cur); err != nil {
		return nil, err
	}
	form, err := s.forms.GetFormWithQuestions(ctx, cur.FormResponseFormID)
	if err != nil {
		return nil, err
	}
	q, ok := form.Question(questionID)
	if !ok {
		return nil, apperror.NotFound("question", questionID)
	}

	candidates := make([]validation.FileCandidate, 0, len(files))
	for _, f := range files {
		candidates = append(candidates, validation.FileCandidate{Name: f.Name, Size: f.Size, MimeType: f.MimeType})
	}
	if err := validation.ValidateFiles(q, candidates); err != nil {
		return nil, err
	}

	refs := make([]model.FileRef, 0, len(files))
	uploaded := make([]string, 0, len(files))
	for _, f := range files {
		ref, err := s.putFile(ctx, cur, q.FormQuestionID, f)
		if err != nil {
			s.discardBlobs(ctx, uploaded)
			return nil, fmt.Errorf("upload %q: %w", f.Name, err)
		}
		refs = append(refs, ref)
		uploaded = append(uploaded, ref.Key)
	}

	value := model.AnswerValue{Kind: model.ValueKindEmpty}
	if len(refs) > 0 {
		value = model.FilesValue(refs...)
	}
	rec, err := s.mutate(ctx, responseID, func(form *formModel.FormModel, r *model.FormResponseModel) error {
		if err := requireOpen(r); err != nil {
			return err
		}
		s.applyAnswer(form, r, q.FormQuestionID, value, timeSpent)
		return nil
	})
	if err != nil {
		s.discardBlobs(ctx, uploaded)
		return nil, err
	}
	return rec, nil
}

// Finalize: semua pertanyaan wajib harus terjawab. Kalau tidak, ValidationError
// berisi semua question id yang kurang dan status tetap incomplete.
func (s *ResponseService) Finalize(ctx context.Context, responseID uuid.UUID) (*model.FormResponseModel, error) {
	rec, err := s.mutate(ctx, responseID, func(form *formModel.FormModel, r *model.FormResponseModel) error {
		if err := requireOpen(r); err != nil {
			return err
		}
		questions := form.OrderedQuestions()

		var missing []string
		for i := range questions {
			q := &questions[i]
			if q.FormQuestionRequired && !r.IsAnswered(q.FormQuestionID) {
				missing = append(missing, q.FormQuestionID.String())
			}
		}
		if len(missing) > 0 {
			return apperror.MissingRequired(missing)
		}

		for _, a := range r.FormResponseAnswers {
			q, ok := form.Question(a.QuestionID)
			if !ok {
				continue
			}
			if err := validation.ValidateAnswer(q, a.Value); err != nil {
				return err
			}
		}

		now := s.now()
		r.FormResponseStatus = model.ResponseStatusCompleted
		r.FormResponseCompletedAt = &now
		r.FormResponseLastActivityAt = now
		r.FormResponseCurrentQuestionIndex = len(questions)
		return nil
	})
	if err == nil {
		log.Printf("[ResponseService] completed response=%s total_time=%ds", rec.FormResponseID, rec.FormResponseTotalTimeSpent)
	}
	return rec, err
}

// Abandon hanya dari incomplete.
func (s *ResponseService) Abandon(ctx context.Context, responseID uuid.UUID) (*model.FormResponseModel, error) {
	return s.mutateStatus(ctx, responseID, func(r *model.FormResponseModel) error {
		if r.FormResponseStatus != model.ResponseStatusIncomplete {
			return apperror.Conflict("response", r.FormResponseID, fmt.Sprintf("cannot abandon a %s response", r.FormResponseStatus))
		}
		r.FormResponseStatus = model.ResponseStatusAbandoned
		return nil
	})
}

// AbandonIdle dipakai sweeper. Record yang sudah aktif lagi sejak cutoff,
// atau sudah tidak incomplete, dilewati (false, nil).
func (s *ResponseService) AbandonIdle(ctx context.Context, responseID uuid.UUID, cutoff time.Time) (bool, error) {
	_, err := s.mutateStatus(ctx, responseID, func(r *model.FormResponseModel) error {
		if r.FormResponseStatus != model.ResponseStatusIncomplete || !r.FormResponseLastActivityAt.Before(cutoff) {
			return errNotEligible
		}
		r.FormResponseStatus = model.ResponseStatusAbandoned
		return nil
	})
	if errors.Is(err, errNotEligible) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListIdle kandidat sweeper: incomplete dengan last_activity_at < cutoff.
func (s *ResponseService) ListIdle(ctx context.Context, cutoff time.Time, limit int) ([]model.FormResponseModel, error) {
	return s.responses.ListIdleIncomplete(ctx, cutoff, limit)
}

/* ==========================
   Reads & owner ops
========================== */

func (s *ResponseService) Get(ctx context.Context, responseID uuid.UUID) (*model.FormResponseModel, error) {
	return s.responses.GetByID(ctx, responseID)
}

// GetForSession: responden hanya boleh menyentuh record miliknya.
func (s *ResponseService) GetForSession(ctx context.Context, responseID uuid.UUID, session string) (*model.FormResponseModel, error) {
	r, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if session == "" || subtle.ConstantTimeCompare([]byte(session), []byte(r.FormResponseSessionToken)) != 1 {
		return nil, apperror.Forbidden("response session does not match")
	}
	return r, nil
}

// GetForForm: record harus milik formID, selain itu diperlakukan tidak ada.
func (s *ResponseService) GetForForm(ctx context.Context, formID, responseID uuid.UUID) (*model.FormResponseModel, error) {
	r, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if r.FormResponseFormID != formID {
		return nil, apperror.NotFound("response", responseID)
	}
	return r, nil
}

func (s *ResponseService) List(ctx context.Context, formID uuid.UUID, f ListFilter) ([]model.FormResponseModel, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperror.Invalid(nil, "status", fmt.Sprintf("unknown status %q", f.Status))
	}
	return s.responses.ListByForm(ctx, formID, f)
}

// Delete hard delete + hapus file jawaban dari storage.
func (s *ResponseService) Delete(ctx context.Context, formID, responseID uuid.UUID) error {
	unlock := s.locks.Lock(responseID.String())
	defer unlock()

	r, err := s.GetForForm(ctx, formID, responseID)
	if err != nil {
		return err
	}
	if err := s.responses.Delete(ctx, responseID); err != nil {
		return err
	}
	s.discardBlobs(ctx, r.FileKeys())
	s.notifier.ResponseChanged(formID)
	log.Printf("[ResponseService] deleted response=%s form=%s", responseID, formID)
	return nil
}

/* ==========================
   Internals
========================== */

// mutate: lock per response id, lalu load -> clone -> fn -> update bersyarat version.
// Kalah race dengan instance lain -> reload & ulang, maksimal maxVersionRetries.
// fn yang gagal tidak pernah mengubah record tersimpan.
func (s *ResponseService) mutate(ctx context.Context, id uuid.UUID, fn func(form *formModel.FormModel, r *model.FormResponseModel) error) (*model.FormResponseModel, error) {
	return s.mutateRecord(ctx, id, true, fn)
}

// mutateStatus: transisi yang tidak butuh form (abandon). Tetap jalan walau form sudah dihapus.
func (s *ResponseService) mutateStatus(ctx context.Context, id uuid.UUID, fn func(r *model.FormResponseModel) error) (*model.FormResponseModel, error) {
	return s.mutateRecord(ctx, id, false, func(_ *formModel.FormModel, r *model.FormResponseModel) error {
		return fn(r)
	})
}

func (s *ResponseService) mutateRecord(ctx context.Context, id uuid.UUID, withForm bool, fn func(form *formModel.FormModel, r *model.FormResponseModel) error) (*model.FormResponseModel, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	var form *formModel.FormModel
	for attempt := 1; attempt <= maxVersionRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, err := s.responses.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if withForm && form == nil {
			if form, err = s.forms.GetFormWithQuestions(ctx, cur.FormResponseFormID); err != nil {
				return nil, err
			}
		}

		next := cur.Clone()
		if err := fn(form, next); err != nil {
			return nil, err
		}
		next.FormResponseVersion = cur.FormResponseVersion + 1

		err = s.responses.UpdateVersioned(ctx, next, cur.FormResponseVersion)
		if errors.Is(err, ErrStaleVersion) {
			log.Printf("[ResponseService] stale version response=%s attempt=%d", id, attempt)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.discardBlobs(ctx, removedKeys(cur.FileKeys(), next.FileKeys()))
		s.notifier.ResponseChanged(next.FormResponseFormID)
		return next, nil
	}
	return nil, apperror.Conflict("response", id, "response was modified concurrently, please retry")
}

func (s *ResponseService) applyAnswer(form *formModel.FormModel, r *model.FormResponseModel, questionID uuid.UUID, value model.AnswerValue, timeSpent int64) {
	now := s.now()
	if value.IsEmpty() {
		r.RemoveAnswer(questionID)
	} else {
		r.UpsertAnswer(model.Answer{QuestionID: questionID, Value: value, TimeSpent: timeSpent, AnsweredAt: now})
	}
	r.FormResponseTotalTimeSpent += timeSpent
	r.FormResponseLastActivityAt = now
	r.FormResponseCurrentQuestionIndex = currentQuestionIndex(form, r)
}

// currentQuestionIndex posisi pertanyaan pertama yang belum terjawab (urutan tampil);
// sama dengan jumlah pertanyaan kalau semua sudah terjawab.
func currentQuestionIndex(form *formModel.FormModel, r *model.FormResponseModel) int {
	questions := form.OrderedQuestions()
	for i := range questions {
		if !r.IsAnswered(questions[i].FormQuestionID) {
			return i
		}
	}
	return len(questions)
}

func requireOpen(r *model.FormResponseModel) error {
	if r.FormResponseStatus.IsTerminal() {
		return apperror.Conflict("response", r.FormResponseID, fmt.Sprintf("response is already %s", r.FormResponseStatus))
	}
	return nil
}

func (s *ResponseService) putFile(ctx context.Context, r *model.FormResponseModel, questionID uuid.UUID, f UploadFile) (model.FileRef, error) {
	body, err := f.Open()
	if err != nil {
		return model.FileRef{}, err
	}
	defer body.Close()

	key := fmt.Sprintf("responses/%s/%s/%s/%s%s",
		r.FormResponseFormID, r.FormResponseID, questionID, s.newID(), strings.ToLower(filepath.Ext(f.Name)))
	url, err := s.blobs.Put(ctx, key, body, f.MimeType)
	if err != nil {
		return model.FileRef{}, err
	}
	return model.FileRef{Key: key, URL: url, Name: f.Name, Size: f.Size, MimeType: f.MimeType}, nil
}

// discardBlobs best-effort, gagal cukup di-log.
func (s *ResponseService) discardBlobs(ctx context.Context, keys []string) {
	if s.blobs == nil || len(keys) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), blobCleanupTimeout)
	defer cancel()
	if err := s.blobs.Delete(cctx, keys); err != nil {
		log.Printf("[ResponseService] cleanup %d object(s) failed: %v", len(keys), err)
	}
}

func removedKeys(before, after []string) []string {
	if len(before) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(after))
	for _, k := range after {
		keep[k] = struct{}{}
	}
	var out []string
	for _, k := range before {
		if _, ok := keep[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
