package seeds

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triddle_backend/internals/features/forms/forms/model"
	formService "triddle_backend/internals/features/forms/forms/service"
	authService "triddle_backend/internals/features/users/auth/service"
	userModel "triddle_backend/internals/features/users/user/model"
	"triddle_backend/internals/helpers/apperror"
)

type stubUsers struct{ byEmail map[string]uuid.UUID }

func (s *stubUsers) Register(_ context.Context, in authService.RegisterInput) (*userModel.UserModel, error) {
	if _, ok := s.byEmail[in.Email]; ok {
		return nil, apperror.Conflict("user", in.Email, "email already registered")
	}
	id := uuid.New()
	s.byEmail[in.Email] = id
	return &userModel.UserModel{ID: id, Email: in.Email}, nil
}

func (s *stubUsers) Login(_ context.Context, identifier, _ string) (*authService.Session, error) {
	return &authService.Session{User: &userModel.UserModel{ID: s.byEmail[identifier]}}, nil
}

type stubForms struct{ bySlug map[string]uuid.UUID }

func (s *stubForms) Create(_ context.Context, owner uuid.UUID, in formService.CreateInput) (*model.FormModel, error) {
	s.bySlug[in.Slug] = owner
	return &model.FormModel{FormSlug: in.Slug, FormOwnerID: owner}, nil
}

func (s *stubForms) GetPublic(_ context.Context, slug string, _ uuid.UUID, _ string) (*model.FormModel, error) {
	if _, ok := s.bySlug[slug]; ok {
		return &model.FormModel{FormSlug: slug}, nil
	}
	return nil, apperror.NotFound("form", slug)
}

func TestRunAllSeedsIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "users"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "forms"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users", "data_users.json"),
		[]byte(`[{"user_name":"a","email":"a@x.test","password":"secret123"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forms", "data_forms.json"),
		[]byte(`[{"owner_email":"a@x.test","title":"T","slug":"t","questions":[{"title":"Q","type":"short_text"}]},
		         {"owner_email":"ghost@x.test","title":"G","slug":"g"}]`), 0o644))

	users := &stubUsers{byEmail: map[string]uuid.UUID{}}
	forms := &stubForms{bySlug: map[string]uuid.UUID{}}

	require.NoError(t, RunAllSeeds(context.Background(), users, forms, dir))
	require.NoError(t, RunAllSeeds(context.Background(), users, forms, dir))

	assert.Len(t, users.byEmail, 1)
	assert.Equal(t, map[string]uuid.UUID{"t": users.byEmail["a@x.test"]}, forms.bySlug)
}

func TestRunAllSeedsMissingFile(t *testing.T) {
	err := RunAllSeeds(context.Background(), &stubUsers{byEmail: map[string]uuid.UUID{}}, &stubForms{bySlug: map[string]uuid.UUID{}}, t.TempDir())
	assert.Error(t, err)
}
