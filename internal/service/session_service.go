package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService owns the test-session lifecycle:
// pending -> in_progress -> completed/submitted, with payment status as an
// orthogonal axis. Every operation re-checks the presented credentials; no
// check is assumed from a prior call.
type SessionService struct {
	sessionRepo repository.TestSessionRepository
	answerRepo  repository.AnswerRepository
	tokens      *TokenService
}

func NewSessionService(sessionRepo repository.TestSessionRepository, answerRepo repository.AnswerRepository, tokens *TokenService) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		answerRepo:  answerRepo,
		tokens:      tokens,
	}
}

type SessionResult struct {
	Session      *domain.TestSession
	SessionToken string
}

// CreatePrePayment creates an unowned session for the anonymous registration
// flow. It becomes visible to account listings only after promotion binds a
// user to it.
func (s *SessionService) CreatePrePayment(ctx context.Context) (*SessionResult, error) {
	session := &domain.TestSession{
		ID:            uuid.New(),
		Status:        domain.SessionStatusPending,
		PaymentStatus: domain.PaymentStatePending,
		CreatedAt:     time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	sessionToken, err := s.tokens.IssueSessionToken(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &SessionResult{Session: session, SessionToken: sessionToken}, nil
}

// CreateAuthenticated creates a session owned by the resolved user. The
// owner is taken from the auth token, never from client input.
func (s *SessionService) CreateAuthenticated(ctx context.Context, userID uuid.UUID) (*SessionResult, error) {
	session := &domain.TestSession{
		ID:            uuid.New(),
		UserID:        &userID,
		Status:        domain.SessionStatusPending,
		PaymentStatus: domain.PaymentStatePending,
		CreatedAt:     time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	sessionToken, err := s.tokens.IssueSessionToken(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &SessionResult{Session: session, SessionToken: sessionToken}, nil
}

// Get returns a session to a holder of a valid session token, but only once
// its payment has completed.
func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID, sessionToken string) (*domain.TestSession, error) {
	session, err := s.authorized(ctx, sessionID, sessionToken)
	if err != nil {
		return nil, err
	}

	if !session.Paid() {
		return nil, &domain.PaymentRequiredError{PaymentStatus: session.PaymentStatus}
	}

	return session, nil
}

// SessionUpdate carries the mutable in-progress fields a session-token
// holder may patch before submission.
type SessionUpdate struct {
	Status    *domain.SessionStatus
	StartedAt *time.Time
}

// Update patches in-progress state. The session token alone authorizes this:
// the anonymous pre-payment flow has no account yet, so this trust boundary
// is deliberately scoped to the ephemeral token. Terminal sessions and
// terminal target statuses are rejected; scores only ever change through
// submission.
func (s *SessionService) Update(ctx context.Context, sessionID uuid.UUID, sessionToken string, update SessionUpdate) (*domain.TestSession, error) {
	session, err := s.authorized(ctx, sessionID, sessionToken)
	if err != nil {
		return nil, err
	}

	if session.Terminal() {
		return nil, domain.ErrSessionCompleted
	}

	if update.Status != nil {
		switch *update.Status {
		case domain.SessionStatusPending, domain.SessionStatusInProgress:
			session.Status = *update.Status
		default:
			return nil, domain.ErrSessionCompleted
		}
	}
	if update.StartedAt != nil {
		session.StartedAt = update.StartedAt
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Answers lists the stored answers for a session-token holder.
func (s *SessionService) Answers(ctx context.Context, sessionID uuid.UUID, sessionToken string) ([]*domain.TestAnswer, error) {
	if _, err := s.authorized(ctx, sessionID, sessionToken); err != nil {
		return nil, err
	}
	return s.answerRepo.GetBySession(ctx, sessionID)
}

// ListByUser returns every session owned by the user.
func (s *SessionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TestSession, error) {
	return s.sessionRepo.GetByUserID(ctx, userID)
}

// ListIncomplete returns paid sessions the user has not finished, for the
// dashboard resume view.
func (s *SessionService) ListIncomplete(ctx context.Context, userID uuid.UUID) ([]*domain.TestSession, error) {
	sessions, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	incomplete := make([]*domain.TestSession, 0, len(sessions))
	for _, session := range sessions {
		if session.Paid() && !session.Terminal() {
			incomplete = append(incomplete, session)
		}
	}
	return incomplete, nil
}

// Resume re-opens a paid, unfinished session for its owner and issues a
// fresh session token. Old tokens are not revoked; they expire on their own.
// A pending session transitions to in_progress and gets its start stamp.
func (s *SessionService) Resume(ctx context.Context, userID, sessionID uuid.UUID) (*SessionResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if session.UserID == nil || *session.UserID != userID {
		return nil, domain.ErrForbidden
	}

	if !session.Paid() {
		return nil, &domain.PaymentRequiredError{PaymentStatus: session.PaymentStatus}
	}

	if session.Terminal() {
		return nil, domain.ErrSessionCompleted
	}

	if session.Status == domain.SessionStatusPending {
		now := time.Now()
		session.Status = domain.SessionStatusInProgress
		session.StartedAt = &now
		if err := s.sessionRepo.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	sessionToken, err := s.tokens.IssueSessionToken(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	return &SessionResult{Session: session, SessionToken: sessionToken}, nil
}

// authorized loads the session and enforces the session-token pairing. A
// missing session and a bad token produce the same error so callers cannot
// probe for session existence.
func (s *SessionService) authorized(ctx context.Context, sessionID uuid.UUID, sessionToken string) (*domain.TestSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if err := s.tokens.ResolveSessionToken(ctx, sessionToken, session.ID); err != nil {
		return nil, err
	}

	return session, nil
}
