package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/backend/internal/authgate"
	"github.com/quizdeck/backend/internal/httperr"
	"github.com/quizdeck/backend/internal/services"
	"github.com/quizdeck/backend/internal/store"
	"github.com/quizdeck/backend/types"
)

// AttemptHandler provides the attempt-history HTTP surface. History is
// always scoped to the session identity; there is no cross-user read.
type AttemptHandler struct {
	attemptService *services.AttemptService
}

func NewAttemptHandler(attemptService *services.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

// AttemptRouter registers attempt-history routes.
func AttemptRouter(r chi.Router, attemptService *services.AttemptService, gate *authgate.Gate, ping func(ctx context.Context) error) {
	h := NewAttemptHandler(attemptService)

	r.Get("/health", Health(ping))
	r.Route("/attempts", func(r chi.Router) {
		r.Use(gate.Require)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{questionID}", h.Record)
	})
}

type attemptRequest struct {
	QuestionID int64  `json:"questionId"`
	Correct    bool   `json:"correct"`
	LastAnswer string `json:"lastAnswer"`
}

// List returns the caller's full history, most recent first.
func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authgate.FromContext(r.Context())
	if !ok {
		writeError(w, httperr.Unauthorised("Unauthorised"))
		return
	}

	attempts, err := h.attemptService.ListByUser(r.Context(), identity.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

// Create starts a history row for a question. A row already existing
// for this (user, question) pair is a conflict; record further
// attempts with PUT instead.
func (h *AttemptHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authgate.FromContext(r.Context())
	if !ok {
		writeError(w, httperr.Unauthorised("Unauthorised"))
		return
	}

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}
	if req.QuestionID < 1 {
		writeError(w, httperr.BadRequest("A question id is required."))
		return
	}

	attempt := types.Attempt{
		UserID:       identity.ID,
		QuestionID:   req.QuestionID,
		AttemptCount: 1,
		LastAnswer:   req.LastAnswer,
	}
	if req.Correct {
		attempt.CorrectCount = 1
	}

	created, err := h.attemptService.Create(r.Context(), attempt)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, httperr.Conflict("A history record for this question already exists."))
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Record adds an attempt to an existing history row.
func (h *AttemptHandler) Record(w http.ResponseWriter, r *http.Request) {
	identity, ok := authgate.FromContext(r.Context())
	if !ok {
		writeError(w, httperr.Unauthorised("Unauthorised"))
		return
	}

	questionID, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
	if err != nil {
		writeError(w, httperr.BadRequest("Invalid question id."))
		return
	}

	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, httperr.BadRequest("Invalid request body."))
		return
	}

	attempt, err := h.attemptService.Record(r.Context(), identity.ID, questionID, req.Correct, req.LastAnswer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, httperr.NotFound("No history record for this question."))
			return
		}
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}
