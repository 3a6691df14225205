package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"triddle_backend/internals/constants"
	"triddle_backend/internals/features/forms/forms/model"
	helper "triddle_backend/internals/helpers"
	"triddle_backend/internals/helpers/apperror"
	helperOSS "triddle_backend/internals/helpers/oss"
)

/* ==========================
   Const & Types
========================== */

const (
	slugMaxLen        = 100
	maxSlugInsertTry  = 3
	imageCleanupAfter = 10 * time.Second
)

type ImageKind string

const (
	ImageCover ImageKind = "cover"
	ImageLogo  ImageKind = "logo"
)

func (k ImageKind) Valid() bool { return k == ImageCover || k == ImageLogo }

type Options struct {
	Now          func() time.Time
	NewID        func() uuid.UUID
	PasswordCost int
	WebP         helperOSS.WebPOptions
}

type FormService struct {
	store   FormStore
	images  ImageStore
	now     func() time.Time
	newID   func() uuid.UUID
	pwdCost int
	webp    helperOSS.WebPOptions
}

type QuestionInput struct {
	Title       string
	Description *string
	Type        model.QuestionType
	Required    bool
	Order       *int
	Options     []string
	Rules       model.ValidationRules
	File        model.FileRules
}

type CreateInput struct {
	Title       string
	Description *string
	Slug        string
	Settings    *model.FormSettings
	Password    string
	IsActive    *bool
	Questions   []QuestionInput
}

// UpdateInput: nil = tidak diubah. Password "" menghapus proteksi password.
type UpdateInput struct {
	Title       *string
	Description *string
	Settings    *model.FormSettings
	IsActive    *bool
	Password    *string
}

type FormSummary struct {
	Form          model.FormModel
	ResponseCount int64
}

func NewFormService(store FormStore, images ImageStore, opts Options) *FormService {
	s := &FormService{
		store:   store,
		images:  images,
		now:     opts.Now,
		newID:   opts.NewID,
		pwdCost: opts.PasswordCost,
		webp:    opts.WebP,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.New
	}
	if s.pwdCost == 0 {
		s.pwdCost = bcrypt.DefaultCost
	}
	if s.webp.MaxW == 0 {
		s.webp = helperOSS.DefaultWebPOptions()
	}
	return s
}

/* ==========================
   Form CRUD
========================== */

func (s *FormService) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (*model.FormModel, error) {
	f := &model.FormModel{
		FormID:          s.newID(),
		FormOwnerID:     ownerID,
		FormTitle:       strings.TrimSpace(in.Title),
		FormDescription: in.Description,
		FormIsActive:    true,
	}
	if in.IsActive != nil {
		f.FormIsActive = *in.IsActive
	}
	settings := model.DefaultFormSettings()
	if in.Settings != nil {
		settings = *in.Settings
	}
	f.SetSettings(settings)

	for i, qi := range in.Questions {
		q := s.buildQuestion(f.FormID, qi)
		if qi.Order == nil {
			q.FormQuestionOrder = i
		}
		f.FormQuestions = append(f.FormQuestions, q)
	}
	if err := f.Validate(); err != nil {
		return nil, apperror.Invalid(nil, "form", err.Error())
	}

	if in.Password != "" {
		hash, err := s.hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		f.FormPasswordHash = &hash
	}

	base := in.Slug
	if strings.TrimSpace(base) == "" {
		base = f.FormTitle
	}
	base = helper.Slugify(base, slugMaxLen)
	slug, err := helper.UniqueSlug(ctx, base, slugMaxLen, s.store.SlugTaken)
	if err != nil {
		return nil, fmt.Errorf("resolve slug: %w", err)
	}

	// Unique index yang jadi penentu akhir; bentrok = ganti suffix acak lalu coba lagi.
	for attempt := 0; ; attempt++ {
		f.FormSlug = slug
		err = s.store.Create(ctx, f)
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt+1 >= maxSlugInsertTry {
			return nil, fmt.Errorf("create form: %w", err)
		}
		slug = helper.RandomSlugSuffix(base, slugMaxLen)
	}

	log.Printf("[FormService] created form=%s slug=%s owner=%s questions=%d", f.FormID, f.FormSlug, ownerID, len(f.FormQuestions))
	return f, nil
}

// RequireOwner memuat form dan memastikan pemiliknya ownerID.
func (s *FormService) RequireOwner(ctx context.Context, ownerID, formID uuid.UUID) (*model.FormModel, error) {
	f, err := s.store.GetFormWithQuestions(ctx, formID)
	if err != nil {
		return nil, err
	}
	if f.FormOwnerID != ownerID {
		return nil, apperror.Forbidden(constants.RoleErrorOwner("this form"))
	}
	return f, nil
}

func (s *FormService) ListOwned(ctx context.Context, ownerID uuid.UUID, f ListFilter) ([]FormSummary, int64, error) {
	forms, total, err := s.store.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, len(forms))
	for i := range forms {
		ids[i] = forms[i].FormID
	}
	counts, err := s.store.CountResponses(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]FormSummary, len(forms))
	for i := range forms {
		out[i] = FormSummary{Form: forms[i], ResponseCount: counts[forms[i].FormID]}
	}
	return out, total, nil
}

func (s *FormService) Update(ctx context.Context, ownerID, formID uuid.UUID, in UpdateInput) (*model.FormModel, error) {
	f, err := s.RequireOwner(ctx, ownerID, formID)
	if err != nil {
		return nil, err
	}

	cols := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.Invalid(nil, "form", model.ErrEmptyTitle.Error())
		}
		cols["form_title"] = title
	}
	if in.Description != nil {
		cols["form_description"] = in.Description
	}
	if in.IsActive != nil {
		cols["form_is_active"] = *in.IsActive
	}
	if in.Settings != nil {
		next := *in.Settings
		// Theme gambar hanya diubah lewat SetImage.
		next.Theme.CoverURL, next.Theme.CoverKey = f.Settings().Theme.CoverURL, f.Settings().Theme.CoverKey
		next.Theme.LogoURL, next.Theme.LogoKey = f.Settings().Theme.LogoURL, f.Settings().Theme.LogoKey
		f.SetSettings(next)
		cols["form_settings"] = f.FormSettings
	}
	if in.Password != nil {
		if *in.Password == "" {
			cols["form_password_hash"] = nil
		} else {
			hash, err := s.hashPassword(*in.Password)
			if err != nil {
				return nil, err
			}
			cols["form_password_hash"] = hash
		}
	}
	if len(cols) == 0 {
		return f, nil
	}
	cols["form_updated_at"] = s.now()

	if err := s.store.UpdateColumns(ctx, formID, cols); err != nil {
		return nil, fmt.Errorf("update form: %w", err)
	}
	return s.store.GetFormWithQuestions(ctx, formID)
}

func (s *FormService) Delete(ctx context.Context, ownerID, formID uuid.UUID) error {
	if _, err := s.RequireOwner(ctx, ownerID, formID); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, formID); err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	log.Printf("[FormService] soft-deleted form=%s", formID)
	return nil
}

// SetImage re-encode gambar ke WebP, simpan ke object storage, lalu hapus gambar lama.
func (s *FormService) SetImage(ctx context.Context, ownerID, formID uuid.UUID, kind ImageKind, src io.Reader) (*model.FormModel, error) {
	if !kind.Valid() {
		return nil, apperror.Invalid(nil, "image_kind", "image kind must be cover or logo")
	}
	if s.images == nil {
		return nil, errors.New("image storage is not configured")
	}
	f, err := s.RequireOwner(ctx, ownerID, formID)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s-%d", kind, s.now().UnixNano())
	url, key, err := s.images.PutWebP(ctx, "forms/"+formID.String(), name, src, s.webp)
	if errors.Is(err, helperOSS.ErrUnsupportedImage) {
		return nil, apperror.Invalid(nil, "image", err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("store %s image: %w", kind, err)
	}

	settings := f.Settings()
	var oldKey string
	if kind == ImageCover {
		oldKey = settings.Theme.CoverKey
		settings.Theme.CoverURL, settings.Theme.CoverKey = url, key
	} else {
		oldKey = settings.Theme.LogoKey
		settings.Theme.LogoURL, settings.Theme.LogoKey = url, key
	}
	f.SetSettings(settings)

	if err := s.store.UpdateColumns(ctx, formID, map[string]any{
		"form_settings":   f.FormSettings,
		"form_updated_at": s.now(),
	}); err != nil {
		s.dropImages([]string{key})
		return nil, fmt.Errorf("save %s image: %w", kind, err)
	}
	if oldKey != "" && oldKey != key {
		s.dropImages([]string{oldKey})
	}
	return f, nil
}

/* ==========================
   Public access
========================== */

// GetPublic: hanya form aktif. Form private hanya untuk pemiliknya,
// form berpassword butuh password yang cocok (pemilik bebas).
func (s *FormService) GetPublic(ctx context.Context, slug string, viewer uuid.UUID, password string) (*model.FormModel, error) {
	f, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !f.FormIsActive {
		return nil, apperror.NotFound("form", slug)
	}
	isOwner := viewer != uuid.Nil && viewer == f.FormOwnerID
	if isOwner {
		return f, nil
	}
	if !f.Settings().IsPublic {
		return nil, apperror.Forbidden("form is private")
	}
	if f.IsPasswordProtected() {
		if password == "" {
			return nil, apperror.Forbidden("form password required")
		}
		if bcrypt.CompareHashAndPassword([]byte(*f.FormPasswordHash), []byte(password)) != nil {
			return nil, apperror.Forbidden("invalid form password")
		}
	}
	return f, nil
}

/* ==========================
   Helpers
========================== */

func (s *FormService) buildQuestion(formID uuid.UUID, in QuestionInput) model.FormQuestionModel {
	q := model.FormQuestionModel{
		FormQuestionID:          s.newID(),
		FormQuestionFormID:      formID,
		FormQuestionTitle:       strings.TrimSpace(in.Title),
		FormQuestionDescription: in.Description,
		FormQuestionType:        in.Type,
		FormQuestionRequired:    in.Required,
		FormQuestionOptions:     in.Options,
		FormQuestionRules:       in.Rules,
		FormQuestionFile:        in.File,
	}
	if in.Order != nil {
		q.FormQuestionOrder = *in.Order
	}
	return q
}

func (s *FormService) hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), s.pwdCost)
	if err != nil {
		return "", fmt.Errorf("hash form password: %w", err)
	}
	return string(hash), nil
}

func (s *FormService) dropImages(keys []string) {
	ctx, cancel := context.WithTimeout(context.Background(), imageCleanupAfter)
	defer cancel()
	if err := s.images.Delete(ctx, keys); err != nil {
		log.Printf("[FormService] delete images %v: %v", keys, err)
	}
}
