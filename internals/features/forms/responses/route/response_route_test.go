package route

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triddle_backend/internals/constants"
	formModel "triddle_backend/internals/features/forms/forms/model"
	"triddle_backend/internals/features/forms/responses/model"
	"triddle_backend/internals/features/forms/responses/service"
	"triddle_backend/internals/helpers/apperror"
)

/* ==========================
   In-memory collaborators
========================== */

type memForms struct {
	form  *formModel.FormModel
	owner uuid.UUID
}

func (m *memForms) GetFormWithQuestions(_ context.Context, id uuid.UUID) (*formModel.FormModel, error) {
	if id != m.form.FormID {
		return nil, apperror.NotFound("form", id)
	}
	return m.form, nil
}

func (m *memForms) GetPublic(_ context.Context, slug string, _ uuid.UUID, _ string) (*formModel.FormModel, error) {
	if slug != m.form.FormSlug {
		return nil, apperror.NotFound("form", slug)
	}
	return m.form, nil
}

func (m *memForms) RequireOwner(_ context.Context, owner, formID uuid.UUID) (*formModel.FormModel, error) {
	if formID != m.form.FormID {
		return nil, apperror.NotFound("form", formID)
	}
	if owner != m.owner {
		return nil, apperror.Forbidden(constants.RoleErrorOwner("responses"))
	}
	return m.form, nil
}

type memResponses struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.FormResponseModel
}

func (s *memResponses) FindOpenBySession(_ context.Context, formID uuid.UUID, session string) (*model.FormResponseModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.FormResponseFormID == formID && r.FormResponseSessionToken == session && r.FormResponseStatus == model.ResponseStatusIncomplete {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

func (s *memResponses) GetByID(_ context.Context, id uuid.UUID) (*model.FormResponseModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, apperror.NotFound("response", id)
	}
	return r.Clone(), nil
}

func (s *memResponses) Create(_ context.Context, r *model.FormResponseModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[r.FormResponseID] = r.Clone()
	return nil
}

func (s *memResponses) UpdateVersioned(_ context.Context, r *model.FormResponseModel, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rows[r.FormResponseID]
	if !ok || cur.FormResponseVersion != expected {
		return service.ErrStaleVersion
	}
	s.rows[r.FormResponseID] = r.Clone()
	return nil
}

func (s *memResponses) ListIdleIncomplete(context.Context, time.Time, int) ([]model.FormResponseModel, error) {
	return nil, nil
}

func (s *memResponses) ListByForm(_ context.Context, formID uuid.UUID, f service.ListFilter) ([]model.FormResponseModel, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FormResponseModel
	for _, r := range s.rows {
		if r.FormResponseFormID == formID && (f.Status == "" || r.FormResponseStatus == f.Status) {
			out = append(out, *r.Clone())
		}
	}
	return out, int64(len(out)), nil
}

func (s *memResponses) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

/* ==========================
   Harness
========================== */

type harness struct {
	app   *fiber.App
	forms *memForms
	name  uuid.UUID
	age   uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	formID := uuid.New()
	h := &harness{name: uuid.New(), age: uuid.New()}
	h.forms = &memForms{
		owner: uuid.New(),
		form: &formModel.FormModel{
			FormID:       formID,
			FormSlug:     "survey",
			FormTitle:    "Survey",
			FormIsActive: true,
			FormQuestions: []formModel.FormQuestionModel{
				{FormQuestionID: h.name, FormQuestionFormID: formID, FormQuestionTitle: "Name", FormQuestionType: formModel.QuestionTypeShortText, FormQuestionRequired: true, FormQuestionOrder: 0},
				{FormQuestionID: h.age, FormQuestionFormID: formID, FormQuestionTitle: "Age", FormQuestionType: formModel.QuestionTypeNumber, FormQuestionRequired: true, FormQuestionOrder: 1},
			},
		},
	}
	svc := service.NewResponseService(h.forms, &memResponses{rows: map[uuid.UUID]*model.FormResponseModel{}}, service.Options{})

	h.app = fiber.New()
	ResponsePublicRoutes(h.app.Group("/api/public"), svc, h.forms)

	// AuthJWT diganti middleware yang langsung mengisi user_id dari header test
	user := h.app.Group("/api/u", func(c *fiber.Ctx) error {
		if id, err := uuid.Parse(c.Get("X-Test-User")); err == nil {
			c.Locals(constants.LocUserID, id)
		}
		return c.Next()
	})
	ResponseOwnerRoutes(user, svc, h.forms)
	return h
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func (h *harness) do(t *testing.T, method, path, session string, body any, headers ...string) (*http.Response, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set(constants.HeaderResponseSession, session)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp, env
}

/* ==========================
   Tests
========================== */

func TestRespondentLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)

	resp, env := h.do(t, fiber.MethodPost, "/api/public/forms/survey/responses", "", nil,
		"User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148",
		"CF-IPCountry", "id")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	session := resp.Header.Get(constants.HeaderResponseSession)
	require.NotEmpty(t, session)

	var started struct {
		ID           uuid.UUID `json:"id"`
		SessionToken string    `json:"session_token"`
		Status       string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	assert.Equal(t, session, started.SessionToken)
	assert.Equal(t, "incomplete", started.Status)
	base := "/api/public/responses/" + started.ID.String()

	// resume dengan session yang sama -> 200, record sama
	resp, env = h.do(t, fiber.MethodPost, "/api/public/forms/survey/responses", session, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var resumed struct {
		ID      uuid.UUID `json:"id"`
		Resumed bool      `json:"resumed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resumed))
	assert.Equal(t, started.ID, resumed.ID)
	assert.True(t, resumed.Resumed)

	resp, _ = h.do(t, fiber.MethodPost, base+"/answers", session, fiber.Map{"question_id": h.name, "value": "Ana", "time_spent": 4})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = h.do(t, fiber.MethodPost, base+"/finalize", session, nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(env.Details), h.age.String())

	resp, _ = h.do(t, fiber.MethodPost, base+"/answers/batch", session, fiber.Map{
		"answers": []fiber.Map{{"question_id": h.age, "value": 31, "time_spent": 2}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, env = h.do(t, fiber.MethodPost, base+"/finalize", session, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var done struct {
		Status         string `json:"status"`
		TotalTimeSpent int64  `json:"total_time_spent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, "completed", done.Status)
	assert.EqualValues(t, 6, done.TotalTimeSpent)

	resp, _ = h.do(t, fiber.MethodPost, base+"/abandon", session, nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRespondentRoutesRequireMatchingSession(t *testing.T) {
	h := newHarness(t)
	resp, env := h.do(t, fiber.MethodPost, "/api/public/forms/survey/responses", "", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var started struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	base := "/api/public/responses/" + started.ID.String()

	resp, _ = h.do(t, fiber.MethodGet, base, "someone-else", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, fiber.MethodPost, base+"/answers", "", fiber.Map{"question_id": h.name, "value": "x"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, fiber.MethodGet, "/api/public/responses/not-a-uuid", "s", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, fiber.MethodPost, "/api/public/forms/unknown/responses", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmitAnswerValidationErrors(t *testing.T) {
	h := newHarness(t)
	resp, env := h.do(t, fiber.MethodPost, "/api/public/forms/survey/responses", "s-1", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var started struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	base := "/api/public/responses/" + started.ID.String()

	// question_id wajib
	resp, _ = h.do(t, fiber.MethodPost, base+"/answers", "s-1", fiber.Map{"value": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// angka untuk pertanyaan number
	resp, _ = h.do(t, fiber.MethodPost, base+"/answers", "s-1", fiber.Map{"question_id": h.age, "value": "thirty"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	// batch kosong
	resp, _ = h.do(t, fiber.MethodPost, base+"/answers/batch", "s-1", fiber.Map{"answers": []fiber.Map{}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOwnerResponseRoutes(t *testing.T) {
	h := newHarness(t)
	resp, env := h.do(t, fiber.MethodPost, "/api/public/forms/survey/responses", "", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var started struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	list := "/api/u/forms/" + h.forms.form.FormID.String() + "/responses"

	resp, _ = h.do(t, fiber.MethodGet, list, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(t, fiber.MethodGet, list, "", nil, "X-Test-User", uuid.NewString())
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	owner := h.forms.owner.String()
	resp, env = h.do(t, fiber.MethodGet, list+"?status=incomplete", "", nil, "X-Test-User", owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, started.ID, rows[0].ID)

	resp, _ = h.do(t, fiber.MethodGet, list+"?status=bogus", "", nil, "X-Test-User", owner)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = h.do(t, fiber.MethodDelete, list+"/"+started.ID.String(), "", nil, "X-Test-User", owner)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, fiber.MethodGet, list+"/"+started.ID.String(), "", nil, "X-Test-User", owner)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
