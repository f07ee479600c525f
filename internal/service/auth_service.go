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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo    repository.UserRepository
	tempRegRepo repository.TempRegistrationRepository
	tokens      *TokenService
	issuer      *token.Issuer
	cfg         *config.Config
}

func NewAuthService(userRepo repository.UserRepository, tempRegRepo repository.TempRegistrationRepository, tokens *TokenService, issuer *token.Issuer, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tempRegRepo: tempRegRepo,
		tokens:      tokens,
		issuer:      issuer,
		cfg:         cfg,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

type RegisterResult struct {
	TempToken string
	ExpiresAt time.Time
}

// Register stores signup data as a temporary registration. No account exists
// until a verified payment promotes it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrDuplicateEmail
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reg := &domain.TempRegistration{
		ID:           uuid.New(),
		Token:        s.issuer.Issue(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hashedPassword),
		ExpiresAt:    now.Add(s.cfg.TempRegTTL),
		CreatedAt:    now,
	}

	if err := s.tempRegRepo.Create(ctx, reg); err != nil {
		return nil, err
	}

	return &RegisterResult{TempToken: reg.Token, ExpiresAt: reg.ExpiresAt}, nil
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User      *domain.User
	AuthToken string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	authToken, err := s.tokens.IssueAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AuthToken: authToken}, nil
}

func (s *AuthService) Logout(ctx context.Context, authToken string) error {
	return s.tokens.Revoke(ctx, authToken)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
