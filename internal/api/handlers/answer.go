package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AnswerHandler struct {
	answerService *service.AnswerService
	validate      *validator.Validate
}

func NewAnswerHandler(answerService *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
		validate:      validator.New(),
	}
}

type UpsertAnswerRequest struct {
	SessionID  uuid.UUID          `json:"sessionId" validate:"required"`
	Section    string             `json:"section" validate:"required"`
	QuestionID string             `json:"questionId" validate:"required"`
	Answer     domain.AnswerValue `json:"answer"`
}

// Upsert saves one answer. Repeated saves for the same question replace the
// stored value, which is what the client's autosave relies on.
func (h *AnswerHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "sessionId, section and questionId are required")
		return
	}

	answer, err := h.answerService.Upsert(r.Context(), r.Header.Get("x-session-token"), service.UpsertAnswerInput{
		SessionID:  req.SessionID,
		Section:    domain.Section(req.Section),
		QuestionID: req.QuestionID,
		Value:      req.Answer,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}
