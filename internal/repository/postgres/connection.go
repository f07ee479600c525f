package postgres

import (
	"context"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.User{},
		&domain.TempRegistration{},
		&domain.TestSession{},
		&domain.TestAnswer{},
		&domain.Payment{},
		&domain.Token{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:             NewUserRepository(db),
		TempRegistration: NewTempRegistrationRepository(db),
		TestSession:      NewTestSessionRepository(db),
		Answer:           NewAnswerRepository(db),
		Payment:          NewPaymentRepository(db),
		Token:            NewTokenRepository(db),
	}
}

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) repository.TxManager {
	return &txManager{db: db}
}

func (m *txManager) Do(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
