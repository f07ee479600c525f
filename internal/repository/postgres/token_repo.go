package postgres

import (
	"context"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"gorm.io/gorm"
)

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *tokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *domain.Token) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*domain.Token, error) {
	var record domain.Token
	err := r.db.WithContext(ctx).First(&record, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *tokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&domain.Token{}, "token = ?", token).Error
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).Delete(&domain.Token{}, "expires_at < ?", now).Error
}
