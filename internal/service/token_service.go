package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/english-proficiency-api/internal/config"
	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/dom/english-proficiency-api/internal/token"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenService owns the token store. Every read applies lazy expiry: an
// expired record is deleted and treated exactly like one that never existed,
// so behavior stays correct even when the background sweeper is not running.
type TokenService struct {
	tokenRepo repository.TokenRepository
	issuer    *token.Issuer
	cfg       *config.Config
}

func NewTokenService(tokenRepo repository.TokenRepository, issuer *token.Issuer, cfg *config.Config) *TokenService {
	return &TokenService{
		tokenRepo: tokenRepo,
		issuer:    issuer,
		cfg:       cfg,
	}
}

func (s *TokenService) IssueAuthToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.issue(ctx, s.tokenRepo, userID, domain.TokenTypeAuth, s.cfg.AuthTokenTTL)
}

func (s *TokenService) IssueSessionToken(ctx context.Context, sessionID uuid.UUID) (string, error) {
	return s.issue(ctx, s.tokenRepo, sessionID, domain.TokenTypeSession, s.cfg.SessionTokenTTL)
}

// IssueAuthTokenWith issues against an explicit repository, for callers
// running inside a transaction.
func (s *TokenService) IssueAuthTokenWith(ctx context.Context, repo repository.TokenRepository, userID uuid.UUID) (string, error) {
	return s.issue(ctx, repo, userID, domain.TokenTypeAuth, s.cfg.AuthTokenTTL)
}

func (s *TokenService) issue(ctx context.Context, repo repository.TokenRepository, subjectID uuid.UUID, typ domain.TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	record := &domain.Token{
		ID:        uuid.New(),
		Token:     s.issuer.Issue(),
		SubjectID: subjectID,
		Type:      typ,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := repo.Create(ctx, record); err != nil {
		return "", err
	}
	return record.Token, nil
}

// ResolveAuthToken returns the user id an auth token is bound to, or
// domain.ErrUnauthorized for a missing, mistyped, or expired token.
func (s *TokenService) ResolveAuthToken(ctx context.Context, tok string) (uuid.UUID, error) {
	record, err := s.resolve(ctx, tok, domain.TokenTypeAuth)
	if err != nil {
		return uuid.Nil, err
	}
	return record.SubjectID, nil
}

// ResolveSessionToken checks that a session token exists, is unexpired, and
// is bound to the given session id. All three failures look identical to the
// caller to avoid token/session enumeration.
func (s *TokenService) ResolveSessionToken(ctx context.Context, tok string, sessionID uuid.UUID) error {
	record, err := s.resolve(ctx, tok, domain.TokenTypeSession)
	if err != nil {
		return err
	}
	if record.SubjectID != sessionID {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *TokenService) resolve(ctx context.Context, tok string, typ domain.TokenType) (*domain.Token, error) {
	if tok == "" {
		return nil, domain.ErrUnauthorized
	}

	record, err := s.tokenRepo.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}

	if record.Type != typ {
		return nil, domain.ErrUnauthorized
	}

	if record.Expired(time.Now()) {
		_ = s.tokenRepo.DeleteByToken(ctx, tok)
		return nil, domain.ErrUnauthorized
	}

	return record, nil
}

// Revoke deletes a token. Deleting an absent token is not an error.
func (s *TokenService) Revoke(ctx context.Context, tok string) error {
	return s.tokenRepo.DeleteByToken(ctx, tok)
}
