package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/store"
	"github.com/quizdeck/backend/types"
)

const (
	defaultPage = 1
	defaultSize = 20
	maxPageSize = 100
)

// QuestionHandler provides the question-catalog HTTP surface.
type QuestionHandler struct {
	questionService *services.QuestionService
}

func NewQuestionHandler(questionService *services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// QuestionRouter registers catalog routes. Reads require a session;
// writes require the ADMIN role, enforced by the elevated validation
// endpoint behind the gate.
func QuestionRouter(r chi.Router, questionService *services.QuestionService, gate *authgate.Gate, ping func(ctx context.Context) error) {
	h := NewQuestionHandler(questionService)

	r.Get("/health", Health(ping))
	r.Route("/questions", func(r chi.Router) {
		r.With(gate.Require).Get("/", h.List)
		r.With(gate.Require).Get("/{questionID}", h.Get)
		r.With(gate.RequireAdmin).Post("/", h.Create)
		r.With(gate.RequireAdmin).Put("/{questionID}", h.Update)
		r.With(gate.RequireAdmin).Delete("/{questionID}", h.Delete)
	})
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", defaultPage)
	size := queryInt(r, "limit", defaultSize)
	if page < 1 {
		page = defaultPage
	}
	if size < 1 || size > maxPageSize {
		size = defaultSize
	}
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))

	questions, err := h.questionService.List(r.Context(), topic, size, (page-1)*size)
	if err != nil {
		respondError(w, err)
		return
	}

	if !isAdmin(r) {
		for i := range questions {
			questions[i].Answer = ""
		}
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := questionID(r)
	if err != nil {
		writeError(w, httperr.BadRequest("Invalid question id."))
		return
	}

	question, err := h.questionService.Get(r.Context(), id)
	if err != nil {
		respondQuestionError(w, err)
		return
	}
	if !isAdmin(r) {
		question.Answer = ""
	}
	writeJSON(w, http.StatusOK, question)
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	created, err := h.questionService.Create(r.Context(), question)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := questionID(r)
	if err != nil {
		writeError(w, httperr.BadRequest("Invalid question id."))
		return
	}
	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}
	question.ID = id

	updated, err := h.questionService.Update(r.Context(), question)
	if err != nil {
		respondQuestionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := questionID(r)
	if err != nil {
		writeError(w, httperr.BadRequest("Invalid question id."))
		return
	}

	if err := h.questionService.Delete(r.Context(), id); err != nil {
		respondQuestionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (types.Question, bool) {
	var question types.Question
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return types.Question{}, false
	}
	question.Topic = strings.TrimSpace(question.Topic)
	question.Prompt = strings.TrimSpace(question.Prompt)
	if question.Topic == "" || question.Prompt == "" || question.Answer == "" {
		writeError(w, httperr.BadRequest("Topic, prompt and answer are required."))
		return types.Question{}, false
	}
	if question.Difficulty < 1 || question.Difficulty > 5 {
		writeError(w, httperr.BadRequest("Difficulty must be between 1 and 5."))
		return types.Question{}, false
	}
	return question, true
}

func questionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func isAdmin(r *http.Request) bool {
	identity, ok := authgate.FromContext(r.Context())
	return ok && identity.Role == types.RoleAdmin
}

func respondQuestionError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, httperr.NotFound("Question not found."))
		return
	}
	respondError(w, err)
}
