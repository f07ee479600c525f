package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/english-proficiency-api/internal/api/middleware"
	"github.com/dom/english-proficiency-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuthHandler struct {
	authService *service.AuthService
	validate    *validator.Validate
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register stores the signup as a temporary registration and returns the
// temp token the client must present when verifying payment. No account
// exists yet.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid registration data: "+err.Error())
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tempToken": result.TempToken,
		"expiresAt": result.ExpiresAt,
		"message":   "Registration pending payment. Complete payment within the hour to activate your account.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":      result.User,
		"authToken": result.AuthToken,
	})
}

// Logout deletes the presented auth token. It takes the raw header rather
// than running behind the auth middleware so an expired token can still be
// cleared client-side without a 401.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tok := r.Header.Get("x-auth-token")
	if tok == "" {
		writeMessage(w, http.StatusBadRequest, "No token provided")
		return
	}

	if err := h.authService.Logout(r.Context(), tok); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetUser returns the authenticated user's own record. Requesting any other
// user id is forbidden.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requestedID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	if requestedID != userID {
		writeMessage(w, http.StatusForbidden, "Access denied")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
