package service

import (
	"github.com/dom/english-proficiency-api/internal/config"
	"github.com/dom/english-proficiency-api/internal/payment"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/dom/english-proficiency-api/internal/token"
)

// Services bundles every service for handler wiring.
type Services struct {
	Auth      *AuthService
	Token     *TokenService
	Session   *SessionService
	Answer    *AnswerService
	Scoring   *ScoringService
	Promotion *PromotionService
}

func NewServices(repos *repository.Repositories, txm repository.TxManager, verifier payment.Verifier, issuer *token.Issuer, cfg *config.Config) *Services {
	tokens := NewTokenService(repos.Token, issuer, cfg)
	sessions := NewSessionService(repos.TestSession, repos.Answer, tokens)

	return &Services{
		Auth:      NewAuthService(repos.User, repos.TempRegistration, tokens, issuer, cfg),
		Token:     tokens,
		Session:   sessions,
		Answer:    NewAnswerService(sessions, repos.Answer),
		Scoring:   NewScoringService(sessions, txm),
		Promotion: NewPromotionService(repos, txm, verifier, tokens, cfg),
	}
}
