package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dom/english-proficiency-api/internal/config"
	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/payment"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromotionService turns a temporary registration into a durable account
// once its payment verifies. The promotion itself is one transaction: user
// creation, auth token issue, payment upsert, session linkage, and temp
// registration deletion all commit or roll back together. The payment upsert
// is keyed by provider reference and the temp token is consumed in the same
// transaction, so a retried webhook racing a client poll produces exactly
// one user.
type PromotionService struct {
	repos    *repository.Repositories
	txm      repository.TxManager
	verifier payment.Verifier
	tokens   *TokenService
	cfg      *config.Config
}

func NewPromotionService(repos *repository.Repositories, txm repository.TxManager, verifier payment.Verifier, tokens *TokenService, cfg *config.Config) *PromotionService {
	return &PromotionService{
		repos:    repos,
		txm:      txm,
		verifier: verifier,
		tokens:   tokens,
		cfg:      cfg,
	}
}

// PromotionResult reports a verify call that did not terminally fail.
// Pending outcomes preserve the temp registration so the caller may poll
// again; everything else is surfaced as an error.
type PromotionResult struct {
	Promoted  bool
	Status    payment.Status
	Message   string
	User      *domain.User
	AuthToken string
}

// VerifyAndPromote runs the identity-resolution algorithm for a payment
// reference and temp token pair.
func (s *PromotionService) VerifyAndPromote(ctx context.Context, reference, tempToken string) (*PromotionResult, error) {
	reg, err := s.repos.TempRegistration.GetByToken(ctx, tempToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRegistrationExpired
		}
		return nil, err
	}

	if reg.Expired(time.Now()) {
		_ = s.repos.TempRegistration.DeleteByToken(ctx, tempToken)
		return nil, domain.ErrRegistrationExpired
	}

	result, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, payment.ErrVerificationFailed) {
			return s.handleUnverifiable(ctx, reference, reg)
		}
		// Verifier unreachable: keep the registration, the caller may retry.
		return nil, fmt.Errorf("payment verifier: %w", err)
	}

	switch result.Status {
	case payment.StatusPending:
		// Asynchronous mobile-money charge still in flight. Preserve the
		// registration so polling can complete the promotion later.
		return &PromotionResult{
			Status:  payment.StatusPending,
			Message: "Payment is being processed. Please check your phone for the mobile money prompt.",
		}, nil

	case payment.StatusFailed:
		if err := s.repos.TempRegistration.DeleteByToken(ctx, tempToken); err != nil {
			return nil, err
		}
		message := result.GatewayResponse
		if message == "" {
			message = "Payment failed. Please try again."
		}
		return &PromotionResult{Status: payment.StatusFailed, Message: message}, nil
	}

	if _, ok := payment.ExpectedAmounts[result.Currency]; !ok {
		_ = s.repos.TempRegistration.DeleteByToken(ctx, tempToken)
		return nil, domain.ErrUnsupportedCurrency
	}

	if !payment.AmountWithinTolerance(result.Currency, result.Amount) {
		// Terminal failure: the attempt forces re-registration.
		_ = s.repos.TempRegistration.DeleteByToken(ctx, tempToken)
		return nil, domain.ErrPaymentAmountInvalid
	}

	sessionID, err := s.resolveSessionID(result, reference)
	if err != nil {
		_ = s.repos.TempRegistration.DeleteByToken(ctx, tempToken)
		return nil, err
	}

	return s.promote(ctx, reg, reference, result.Amount, sessionID)
}

// handleUnverifiable deals with references the provider rejects outright.
// With the sandbox flag on, card-style references are approved so end-to-end
// flows work without a live provider account; otherwise the attempt fails
// terminally.
func (s *PromotionService) handleUnverifiable(ctx context.Context, reference string, reg *domain.TempRegistration) (*PromotionResult, error) {
	if s.cfg.PaymentSandbox && strings.HasPrefix(reference, "EP_") && !strings.Contains(reference, "MPESA") {
		sessionID, err := parseSessionID(payment.SessionIDFromReference(reference))
		if err == nil {
			log.Printf("SANDBOX: approving unverifiable payment reference %s", reference)
			return s.promote(ctx, reg, reference, payment.ExpectedAmounts["USD"], sessionID)
		}
	}

	if err := s.repos.TempRegistration.DeleteByToken(ctx, reg.Token); err != nil {
		return nil, err
	}
	return nil, domain.ErrPaymentVerificationFailed
}

func (s *PromotionService) resolveSessionID(result *payment.Result, reference string) (uuid.UUID, error) {
	candidate := result.SessionID
	if candidate == "" {
		candidate = payment.SessionIDFromReference(reference)
	}
	return parseSessionID(candidate)
}

func parseSessionID(candidate string) (uuid.UUID, error) {
	if candidate == "" {
		return uuid.Nil, domain.ErrInvalidPaymentReference
	}
	id, err := uuid.Parse(candidate)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidPaymentReference
	}
	return id, nil
}

// promote is the single multi-record transaction in the system.
func (s *PromotionService) promote(ctx context.Context, reg *domain.TempRegistration, reference string, amount int64, sessionID uuid.UUID) (*PromotionResult, error) {
	var (
		user      *domain.User
		authToken string
	)

	err := s.txm.Do(ctx, func(repos *repository.Repositories) error {
		session, err := repos.TestSession.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInvalidPaymentReference
			}
			return err
		}

		now := time.Now()
		user = &domain.User{
			ID:           uuid.New(),
			FirstName:    reg.FirstName,
			LastName:     reg.LastName,
			Email:        reg.Email,
			Phone:        reg.Phone,
			PasswordHash: reg.PasswordHash,
			CreatedAt:    now,
		}
		if err := repos.User.Create(ctx, user); err != nil {
			return err
		}

		// Auto-login: the user should land in their dashboard after paying.
		authToken, err = s.tokens.IssueAuthTokenWith(ctx, repos.Token, user.ID)
		if err != nil {
			return err
		}

		if _, err := repos.Payment.UpsertByReference(ctx, &domain.Payment{
			ID:                uuid.New(),
			SessionID:         session.ID,
			ProviderReference: reference,
			Amount:            amount,
			Status:            domain.PaymentStatusSuccess,
			CreatedAt:         now,
		}); err != nil {
			return err
		}

		// Link the session but keep it pending: the exam starts when the
		// user resumes it, not when the charge clears.
		session.UserID = &user.ID
		session.PaymentStatus = domain.PaymentStateCompleted
		session.Status = domain.SessionStatusPending
		if err := repos.TestSession.Update(ctx, session); err != nil {
			return err
		}

		return repos.TempRegistration.DeleteByToken(ctx, reg.Token)
	})
	if err != nil {
		// A failed promotion must not leave a redeemable temp token behind.
		_ = s.repos.TempRegistration.DeleteByToken(ctx, reg.Token)
		return nil, fmt.Errorf("promotion failed: %w", err)
	}

	log.Printf("promoted registration %s to user %s (session %s)", reg.ID, user.ID, sessionID)

	return &PromotionResult{
		Promoted:  true,
		Status:    payment.StatusSuccess,
		User:      user,
		AuthToken: authToken,
	}, nil
}

// MpesaChargeInput carries the client-supplied details for an M-Pesa charge.
type MpesaChargeInput struct {
	SessionID uuid.UUID
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// MpesaChargeResult is returned to the client so it can poll verification
// with the generated reference.
type MpesaChargeResult struct {
	Reference   string
	DisplayText string
}

// InitializeMpesa starts an asynchronous mobile-money charge and records a
// pending payment keyed by the generated reference. The session id is encoded
// into the reference so verification can recover it even if provider metadata
// is dropped.
func (s *PromotionService) InitializeMpesa(ctx context.Context, input MpesaChargeInput) (*MpesaChargeResult, error) {
	session, err := s.repos.TestSession.GetByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	amount := payment.ExpectedAmounts["KES"]
	reference := fmt.Sprintf("EP_MPESA_%s_%d", session.ID, time.Now().UnixMilli())

	charge, err := s.verifier.InitializeMobileMoney(ctx, payment.ChargeRequest{
		Email:     input.Email,
		Amount:    amount,
		Phone:     input.Phone,
		SessionID: session.ID.String(),
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("mpesa charge: %w", err)
	}

	if _, err := s.repos.Payment.UpsertByReference(ctx, &domain.Payment{
		ID:                uuid.New(),
		SessionID:         session.ID,
		ProviderReference: charge.Reference,
		Amount:            amount,
		Status:            domain.PaymentStatusPending,
		CreatedAt:         time.Now(),
	}); err != nil {
		return nil, err
	}

	return &MpesaChargeResult{
		Reference:   charge.Reference,
		DisplayText: charge.DisplayText,
	}, nil
}

// HandleWebhookEvent applies a provider-signed charge notification. Unlike
// the client verify path it has no temp token, so it only settles the
// payment and session; account promotion still happens via verify polling.
func (s *PromotionService) HandleWebhookEvent(ctx context.Context, event *payment.WebhookEvent) error {
	if event.Event != "charge.success" {
		return nil
	}

	result := event.Normalized()
	if result.Status != payment.StatusSuccess {
		return nil
	}

	if !payment.AmountWithinTolerance(result.Currency, result.Amount) {
		log.Printf("webhook: ignoring charge %s with amount %d %s outside tolerance", result.Reference, result.Amount, result.Currency)
		return nil
	}

	sessionID, err := s.resolveSessionID(result, result.Reference)
	if err != nil {
		log.Printf("webhook: could not resolve session for reference %s", result.Reference)
		return nil
	}

	return s.txm.Do(ctx, func(repos *repository.Repositories) error {
		session, err := repos.TestSession.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("webhook: no session %s for reference %s", sessionID, result.Reference)
				return nil
			}
			return err
		}

		if _, err := repos.Payment.UpsertByReference(ctx, &domain.Payment{
			ID:                uuid.New(),
			SessionID:         session.ID,
			ProviderReference: result.Reference,
			Amount:            result.Amount,
			Status:            domain.PaymentStatusSuccess,
			CreatedAt:         time.Now(),
		}); err != nil {
			return err
		}

		session.PaymentStatus = domain.PaymentStateCompleted
		return repos.TestSession.Update(ctx, session)
	})
}
