package repository

import (
	"context"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type TempRegistrationRepository interface {
	Create(ctx context.Context, reg *domain.TempRegistration) error
	GetByToken(ctx context.Context, token string) (*domain.TempRegistration, error)
	// DeleteByToken is idempotent; deleting an absent token is not an error.
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type TestSessionRepository interface {
	Create(ctx context.Context, session *domain.TestSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TestSession, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.TestSession, error)
	Update(ctx context.Context, session *domain.TestSession) error
	// FinalizeScores writes scores, certificate id, and terminal status in
	// one guarded update. Returns domain.ErrSessionCompleted if the session
	// is already terminal, so concurrent submits cannot both succeed.
	FinalizeScores(ctx context.Context, session *domain.TestSession) error
}

type AnswerRepository interface {
	// Upsert replaces any existing answer for the same
	// (session, section, question) key. Last write wins.
	Upsert(ctx context.Context, answer *domain.TestAnswer) (*domain.TestAnswer, error)
	GetBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.TestAnswer, error)
	Update(ctx context.Context, answer *domain.TestAnswer) error
}

type PaymentRepository interface {
	// UpsertByReference creates the payment if its provider reference is
	// unseen, otherwise updates the existing row's status and amount.
	UpsertByReference(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error
	GetByToken(ctx context.Context, token string) (*domain.Token, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

type Repositories struct {
	User             UserRepository
	TempRegistration TempRegistrationRepository
	TestSession      TestSessionRepository
	Answer           AnswerRepository
	Payment          PaymentRepository
	Token            TokenRepository
}

// TxManager runs fn with a Repositories bound to one database transaction.
// The payment-promotion path is the only caller that needs multi-record
// atomicity.
type TxManager interface {
	Do(ctx context.Context, fn func(repos *Repositories) error) error
}
