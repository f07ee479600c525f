package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/dom/english-proficiency-api/internal/config"
	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/payment"
	"github.com/dom/english-proficiency-api/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	promotionService *service.PromotionService
	validate         *validator.Validate
	cfg              *config.Config
}

func NewPaymentHandler(promotionService *service.PromotionService, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		promotionService: promotionService,
		validate:         validator.New(),
		cfg:              cfg,
	}
}

type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
	TempToken string `json:"tempToken" validate:"required"`
}

// Verify resolves a payment reference and, on success, promotes the temp
// registration into a durable account. Its response contract is richer than
// the rest of the API: pending and failed outcomes are 200s with success:false
// so the client polling loop can distinguish "keep waiting" from "start over",
// and terminal failures carry requireLogout to force re-registration.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payment reference and temp token are required")
		return
	}

	result, err := h.promotionService.VerifyAndPromote(r.Context(), req.Reference, req.TempToken)
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}

	if result.Promoted {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"user":      result.User,
			"authToken": result.AuthToken,
			"message":   "Payment verified. Your account is now active.",
		})
		return
	}

	resp := map[string]interface{}{
		"success": false,
		"status":  string(result.Status),
		"message": result.Message,
	}
	if result.Status == payment.StatusFailed {
		resp["requireLogout"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrRegistrationExpired):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":       "Registration expired or invalid. Please register again.",
			"requireLogout": true,
		})
	case errors.Is(err, domain.ErrPaymentAmountInvalid),
		errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.Is(err, domain.ErrInvalidPaymentReference),
		errors.Is(err, domain.ErrPaymentVerificationFailed):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":       err.Error(),
			"requireLogout": true,
		})
	default:
		// Verifier unreachable or database failure. The temp registration is
		// preserved, so the client may retry the same reference.
		log.Printf("ERROR [PaymentHandler.Verify] %v", err)
		writeMessage(w, http.StatusBadGateway, "Payment verification is temporarily unavailable. Please try again.")
	}
}

type InitializeMpesaRequest struct {
	SessionID uuid.UUID `json:"sessionId" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"required"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// InitializeMpesa starts an asynchronous M-Pesa charge. The client then polls
// Verify with the returned reference while the user approves the prompt.
func (h *PaymentHandler) InitializeMpesa(w http.ResponseWriter, r *http.Request) {
	var req InitializeMpesaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, "sessionId, email and phone are required")
		return
	}

	result, err := h.promotionService.InitializeMpesa(r.Context(), service.MpesaChargeInput{
		SessionID: req.SessionID,
		Email:     req.Email,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, err)
			return
		}
		log.Printf("ERROR [PaymentHandler.InitializeMpesa] %v", err)
		writeMessage(w, http.StatusBadGateway, "Could not initiate mobile money payment. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"reference":   result.Reference,
		"displayText": result.DisplayText,
		"message":     "Payment initiated. Check your phone for the M-Pesa prompt.",
	})
}

// Webhook consumes provider-signed charge notifications. The signature is
// checked over the raw body before any JSON parsing; a mismatch is rejected
// without processing.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	signature := r.Header.Get("x-paystack-signature")
	if !payment.ValidSignature(h.cfg.PaystackSecretKey, body, signature) {
		log.Printf("ERROR [PaymentHandler.Webhook] invalid signature")
		writeMessage(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.promotionService.HandleWebhookEvent(r.Context(), &event); err != nil {
		log.Printf("ERROR [PaymentHandler.Webhook] %v", err)
		writeMessage(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
