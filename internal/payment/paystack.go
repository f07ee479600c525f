package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrVerificationFailed means the provider rejected the reference outright
// (top-level failure), as opposed to reporting a failed or pending charge.
var ErrVerificationFailed = errors.New("provider could not verify transaction")

type PaystackVerifier struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewPaystackVerifier(baseURL, secretKey string) *PaystackVerifier {
	return &PaystackVerifier{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    paystackTxnData `json:"data"`
}

type paystackTxnData struct {
	Status          string          `json:"status"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Reference       string          `json:"reference"`
	GatewayResponse string          `json:"gateway_response"`
	DisplayText     string          `json:"display_text"`
	Metadata        json.RawMessage `json:"metadata"`
}

type paystackMetadata struct {
	SessionID string `json:"sessionId"`
}

func (v *PaystackVerifier) Verify(ctx context.Context, reference string) (*Result, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", v.baseURL, reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+v.secretKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paystack verify request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("paystack verify response invalid: %w", err)
	}

	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, envelope.Message)
	}

	return normalize(envelope.Data), nil
}

func normalize(data paystackTxnData) *Result {
	result := &Result{
		Amount:          data.Amount,
		Currency:        data.Currency,
		Reference:       data.Reference,
		GatewayResponse: data.GatewayResponse,
	}

	if len(data.Metadata) > 0 {
		var meta paystackMetadata
		if err := json.Unmarshal(data.Metadata, &meta); err == nil {
			result.SessionID = meta.SessionID
		}
	}

	switch data.Status {
	case "success":
		result.Status = StatusSuccess
	case "failed":
		result.Status = StatusFailed
	default:
		// "ongoing" mobile-money charges and anything unknown stay pending
		// so the client keeps polling instead of losing the registration.
		result.Status = StatusPending
	}

	return result
}

type paystackChargeRequest struct {
	Email       string              `json:"email"`
	Amount      int64               `json:"amount"`
	Currency    string              `json:"currency"`
	MobileMoney paystackMobileMoney `json:"mobile_money"`
	Reference   string              `json:"reference"`
	Metadata    map[string]string   `json:"metadata"`
}

type paystackMobileMoney struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

func (v *PaystackVerifier) InitializeMobileMoney(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	phone := req.Phone
	if !strings.HasPrefix(phone, "+") {
		phone = "+254" + strings.TrimPrefix(phone, "0")
	}

	payload := paystackChargeRequest{
		Email:    req.Email,
		Amount:   req.Amount,
		Currency: "KES",
		MobileMoney: paystackMobileMoney{
			Phone:    phone,
			Provider: "mpesa",
		},
		Reference: req.Reference,
		Metadata: map[string]string{
			"sessionId":     req.SessionID,
			"testType":      "english_proficiency",
			"paymentMethod": "mpesa",
			"firstName":     req.FirstName,
			"lastName":      req.LastName,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/charge", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+v.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("paystack charge request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("paystack charge response invalid: %w", err)
	}

	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, envelope.Message)
	}

	return &ChargeResult{
		Reference:   req.Reference,
		DisplayText: envelope.Data.DisplayText,
	}, nil
}

// WebhookEvent is the provider-signed notification payload.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  paystackTxnData `json:"data"`
}

// Normalized converts the event's charge data into the same Result shape the
// verify path produces.
func (e *WebhookEvent) Normalized() *Result {
	return normalize(e.Data)
}

// ValidSignature checks the HMAC-SHA512 hex signature over the raw webhook
// body. Must be called before the body is parsed.
func ValidSignature(secretKey string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
