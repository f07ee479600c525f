package postgres

import (
	"context"

	"github.com/dom/english-proficiency-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *paymentRepository {
	return &paymentRepository{db: db}
}

// UpsertByReference is the idempotency point for duplicate webhook and verify
// events racing on the same provider reference.
func (r *paymentRepository) UpsertByReference(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "amount", "updated_at"}),
	}).Create(payment).Error
	if err != nil {
		return nil, err
	}

	var stored domain.Payment
	err = r.db.WithContext(ctx).First(&stored, "provider_reference = ?", payment.ProviderReference).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).First(&payment, "provider_reference = ?", reference).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
