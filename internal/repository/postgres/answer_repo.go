package postgres

import (
	"context"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *answerRepository {
	return &answerRepository{db: db}
}

// Upsert keys on (session_id, section, question_id) so autosave retries
// overwrite instead of accumulating duplicates.
func (r *answerRepository) Upsert(ctx context.Context, answer *domain.TestAnswer) (*domain.TestAnswer, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "session_id"},
			{Name: "section"},
			{Name: "question_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"answer", "is_correct", "score", "updated_at"}),
	}).Create(answer).Error
	if err != nil {
		return nil, err
	}

	var stored domain.TestAnswer
	err = r.db.WithContext(ctx).First(&stored,
		"session_id = ? AND section = ? AND question_id = ?",
		answer.SessionID, answer.Section, answer.QuestionID).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *answerRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.TestAnswer, error) {
	var answers []*domain.TestAnswer
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepository) Update(ctx context.Context, answer *domain.TestAnswer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}
