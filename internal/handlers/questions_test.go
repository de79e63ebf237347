package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/store"
	"github.com/quizdeck/backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuestionRepo struct {
	byID   map[int64]types.Question
	nextID int64
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{byID: make(map[int64]types.Question), nextID: 1}
}

func (f *fakeQuestionRepo) Get(_ context.Context, id int64) (types.Question, error) {
	q, ok := f.byID[id]
	if !ok {
		return types.Question{}, store.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) List(_ context.Context, topic string, limit, offset int) ([]types.Question, error) {
	ids := make([]int64, 0, len(f.byID))
	for id, q := range f.byID {
		if topic != "" && q.Topic != topic {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	questions := make([]types.Question, 0, limit)
	for i := offset; i < len(ids) && len(questions) < limit; i++ {
		questions = append(questions, f.byID[ids[i]])
	}
	return questions, nil
}

func (f *fakeQuestionRepo) Create(_ context.Context, q types.Question) (types.Question, error) {
	q.ID = f.nextID
	f.nextID++
	f.byID[q.ID] = q
	return q, nil
}

func (f *fakeQuestionRepo) Update(_ context.Context, q types.Question) (types.Question, error) {
	if _, ok := f.byID[q.ID]; !ok {
		return types.Question{}, store.ErrNotFound
	}
	f.byID[q.ID] = q
	return q, nil
}

func (f *fakeQuestionRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// questionFixture serves the catalog routes behind a real gate. The
// stubbed validator answers /validate with the configured session and
// /validateAdmin with 403 unless that session holds the ADMIN role.
type questionFixture struct {
	server  *httptest.Server
	repo    *fakeQuestionRepo
	session types.User
}

func newQuestionFixture(t *testing.T) *questionFixture {
	t.Helper()
	fx := &questionFixture{repo: newFakeQuestionRepo()}

	validator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fx.session.ID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"UNAUTHORISED","message":"Unauthorised"}`))
			return
		}
		if r.URL.Path == "/validateAdmin" && fx.session.Role != types.RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"FORBIDDEN","message":"Admin access required."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(fx.session)
	}))
	t.Cleanup(validator.Close)

	gate := authgate.New(validator.URL, testBypassSecret)
	router := chi.NewRouter()
	QuestionRouter(router, services.NewQuestionService(fx.repo), gate, func(context.Context) error { return nil })

	fx.server = httptest.NewServer(router)
	t.Cleanup(fx.server.Close)
	return fx
}

func (fx *questionFixture) seed(t *testing.T, q types.Question) types.Question {
	t.Helper()
	created, err := fx.repo.Create(context.Background(), q)
	require.NoError(t, err)
	return created
}

func (fx *questionFixture) request(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, fx.server.URL+path, reqBody)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: authgate.CookieName, Value: "any"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

var (
	quizUser  = types.User{ID: "u1", Role: types.RoleUser}
	quizAdmin = types.User{ID: "a1", Role: types.RoleAdmin}
)

// Reads strip the answer for regular sessions; admins see it.
func TestQuestionAnswerHiddenFromPlayers(t *testing.T) {
	fx := newQuestionFixture(t)
	seeded := fx.seed(t, types.Question{Topic: "go", Difficulty: 2, Prompt: "Zero value of a map?", Answer: "nil"})

	fx.session = quizUser
	resp, data := fx.request(t, http.MethodGet, "/questions/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got types.Question
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, seeded.Prompt, got.Prompt)
	assert.Empty(t, got.Answer)

	fx.session = quizAdmin
	resp, data = fx.request(t, http.MethodGet, "/questions/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "nil", got.Answer)
}

func TestQuestionListFiltersAndPaginates(t *testing.T) {
	fx := newQuestionFixture(t)
	for i := 0; i < 3; i++ {
		fx.seed(t, types.Question{Topic: "go", Difficulty: 1, Prompt: "p", Answer: "a"})
	}
	fx.seed(t, types.Question{Topic: "sql", Difficulty: 1, Prompt: "p", Answer: "a"})

	fx.session = quizUser
	resp, data := fx.request(t, http.MethodGet, "/questions?topic=go&limit=2&page=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page []types.Question
	require.NoError(t, json.Unmarshal(data, &page))
	require.Len(t, page, 2)
	for _, q := range page {
		assert.Equal(t, "go", q.Topic)
		assert.Empty(t, q.Answer)
	}

	resp, data = fx.request(t, http.MethodGet, "/questions?topic=go&limit=2&page=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &page))
	assert.Len(t, page, 1)
}

// Catalog writes are gated on the elevated validation endpoint, so a
// plain session is turned away with the identity service's exact
// answer.
func TestQuestionWritesRequireAdmin(t *testing.T) {
	fx := newQuestionFixture(t)
	fx.session = quizUser

	resp, data := fx.request(t, http.MethodPost, "/questions", types.Question{
		Topic: "go", Difficulty: 1, Prompt: "p", Answer: "a",
	})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, `{"error":"FORBIDDEN","message":"Admin access required."}`, string(data))
	assert.Empty(t, fx.repo.byID)
}

func TestQuestionCreateValidation(t *testing.T) {
	fx := newQuestionFixture(t)
	fx.session = quizAdmin

	cases := map[string]types.Question{
		"missing topic":      {Difficulty: 1, Prompt: "p", Answer: "a"},
		"missing prompt":     {Topic: "go", Difficulty: 1, Answer: "a"},
		"missing answer":     {Topic: "go", Difficulty: 1, Prompt: "p"},
		"difficulty too low": {Topic: "go", Difficulty: 0, Prompt: "p", Answer: "a"},
		"difficulty too big": {Topic: "go", Difficulty: 6, Prompt: "p", Answer: "a"},
	}
	for name, q := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := fx.request(t, http.MethodPost, "/questions", q)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestQuestionLifecycle(t *testing.T) {
	fx := newQuestionFixture(t)
	fx.session = quizAdmin

	resp, data := fx.request(t, http.MethodPost, "/questions", types.Question{
		Topic: "go", Difficulty: 3, Prompt: "What does defer do?", Answer: "Runs at function return.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created types.Question
	require.NoError(t, json.Unmarshal(data, &created))
	require.NotZero(t, created.ID)

	created.Difficulty = 4
	resp, data = fx.request(t, http.MethodPut, "/questions/1", created)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated types.Question
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, 4, updated.Difficulty)

	resp, _ = fx.request(t, http.MethodDelete, "/questions/1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = fx.request(t, http.MethodGet, "/questions/1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQuestionBadID(t *testing.T) {
	fx := newQuestionFixture(t)
	fx.session = quizUser

	resp, data := fx.request(t, http.MethodGet, "/questions/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "Invalid question id.")
}
