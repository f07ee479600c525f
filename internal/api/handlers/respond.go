package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dom/english-proficiency-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("ERROR [handlers] encoding response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps domain sentinel errors onto HTTP statuses. Unknown errors
// are logged and surfaced as a generic 500 so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var paymentRequired *domain.PaymentRequiredError
	if errors.As(err, &paymentRequired) {
		writeJSON(w, http.StatusPaymentRequired, map[string]string{
			"message":       "Payment required before accessing this session",
			"paymentStatus": string(paymentRequired.PaymentStatus),
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeMessage(w, http.StatusNotFound, "Test session not found")
	case errors.Is(err, domain.ErrInvalidSection):
		writeMessage(w, http.StatusBadRequest, "Unknown test section")
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeMessage(w, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, domain.ErrSessionCompleted):
		writeMessage(w, http.StatusConflict, "Test session has already been completed")
	default:
		log.Printf("ERROR [handlers] internal error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
