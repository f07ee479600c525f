package postgres

import (
	"context"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testSessionRepository struct {
	db *gorm.DB
}

func NewTestSessionRepository(db *gorm.DB) *testSessionRepository {
	return &testSessionRepository{db: db}
}

func (r *testSessionRepository) Create(ctx context.Context, session *domain.TestSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *testSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TestSession, error) {
	var session domain.TestSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByUserID intentionally never matches sessions with a null user_id:
// pre-payment sessions stay invisible to account listings until promotion.
func (r *testSessionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.TestSession, error) {
	var sessions []*domain.TestSession
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *testSessionRepository) Update(ctx context.Context, session *domain.TestSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// FinalizeScores guards on the non-terminal statuses so that of two racing
// submits exactly one wins; the loser sees zero rows affected.
func (r *testSessionRepository) FinalizeScores(ctx context.Context, session *domain.TestSession) error {
	result := r.db.WithContext(ctx).
		Model(&domain.TestSession{}).
		Where("id = ? AND status NOT IN ?", session.ID,
			[]domain.SessionStatus{domain.SessionStatusCompleted, domain.SessionStatusSubmitted}).
		Updates(map[string]interface{}{
			"status":          session.Status,
			"completed_at":    session.CompletedAt,
			"total_score":     session.TotalScore,
			"reading_score":   session.ReadingScore,
			"listening_score": session.ListeningScore,
			"writing_score":   session.WritingScore,
			"speaking_score":  session.SpeakingScore,
			"certificate_id":  session.CertificateID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSessionCompleted
	}
	return nil
}
