package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dom/english-proficiency-api/internal/api/middleware"
	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SessionHandler struct {
	sessionService *service.SessionService
	scoringService *service.ScoringService
}

func NewSessionHandler(sessionService *service.SessionService, scoringService *service.ScoringService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		scoringService: scoringService,
	}
}

// CreatePrePayment creates an unowned session for the anonymous registration
// flow. No auth required; the returned session token is the only credential.
func (h *SessionHandler) CreatePrePayment(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessionService.CreatePrePayment(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":      result.Session,
		"sessionToken": result.SessionToken,
	})
}

// Create creates a session owned by the authenticated user.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	result, err := h.sessionService.CreateAuthenticated(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":      result.Session,
		"sessionToken": result.SessionToken,
	})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	session, err := h.sessionService.Get(r.Context(), sessionID, r.Header.Get("x-session-token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type UpdateSessionRequest struct {
	Status    *string    `json:"status"`
	StartedAt *time.Time `json:"startedAt"`
}

// Update patches in-progress session state. The session token alone
// authorizes this so the anonymous pre-payment flow can stamp progress.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := service.SessionUpdate{StartedAt: req.StartedAt}
	if req.Status != nil {
		status := domain.SessionStatus(*req.Status)
		update.Status = &status
	}

	session, err := h.sessionService.Update(r.Context(), sessionID, r.Header.Get("x-session-token"), update)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Answers lists the stored answers for a session.
func (h *SessionHandler) Answers(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	answers, err := h.sessionService.Answers(r.Context(), sessionID, r.Header.Get("x-session-token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answers)
}

// ListByUser returns every session owned by the authenticated user.
func (h *SessionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessionService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// ListIncomplete returns paid, unfinished sessions for the dashboard.
func (h *SessionHandler) ListIncomplete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}

	sessions, err := h.sessionService.ListIncomplete(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Resume re-opens a paid, unfinished session for its owner and returns a
// fresh session token.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.ownUserID(w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	result, err := h.sessionService.Resume(r.Context(), userID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":      result.Session,
		"sessionToken": result.SessionToken,
	})
}

// Submit grades the session and returns the final scores and certificate.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	result, err := h.scoringService.Submit(r.Context(), sessionID, r.Header.Get("x-session-token"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":       result.Session,
		"scores":        result.Scores,
		"certificateId": result.CertificateID,
	})
}

// ownUserID parses the {userId} path parameter and enforces that it matches
// the authenticated user.
func (h *SessionHandler) ownUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}

	requestedID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return uuid.Nil, false
	}

	if requestedID != userID {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return uuid.Nil, false
	}

	return userID, true
}
