package postgres

import (
	"context"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"gorm.io/gorm"
)

type tempRegistrationRepository struct {
	db *gorm.DB
}

func NewTempRegistrationRepository(db *gorm.DB) *tempRegistrationRepository {
	return &tempRegistrationRepository{db: db}
}

func (r *tempRegistrationRepository) Create(ctx context.Context, reg *domain.TempRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *tempRegistrationRepository) GetByToken(ctx context.Context, token string) (*domain.TempRegistration, error) {
	var reg domain.TempRegistration
	err := r.db.WithContext(ctx).First(&reg, "token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *tempRegistrationRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Delete(&domain.TempRegistration{}, "token = ?", token).Error
}

func (r *tempRegistrationRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).Delete(&domain.TempRegistration{}, "expires_at < ?", now).Error
}
