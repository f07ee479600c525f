package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/google/uuid"
)

type AnswerService struct {
	sessions   *SessionService
	answerRepo repository.AnswerRepository
}

func NewAnswerService(sessions *SessionService, answerRepo repository.AnswerRepository) *AnswerService {
	return &AnswerService{
		sessions:   sessions,
		answerRepo: answerRepo,
	}
}

type UpsertAnswerInput struct {
	SessionID  uuid.UUID
	Section    domain.Section
	QuestionID string
	Value      domain.AnswerValue
}

// Upsert records an answer for a paid, token-authorized session. Writing the
// same (session, section, question) key again replaces the stored value,
// which is what lets clients autosave on a timer without duplicating rows.
// Correctness and score stay unset until submission.
func (s *AnswerService) Upsert(ctx context.Context, sessionToken string, input UpsertAnswerInput) (*domain.TestAnswer, error) {
	if !domain.ValidSection(input.Section) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSection, input.Section)
	}

	// Get enforces the full gate: token pairing plus completed payment.
	if _, err := s.sessions.Get(ctx, input.SessionID, sessionToken); err != nil {
		return nil, err
	}

	answer := &domain.TestAnswer{
		ID:         uuid.New(),
		SessionID:  input.SessionID,
		Section:    input.Section,
		QuestionID: input.QuestionID,
		CreatedAt:  time.Now(),
	}
	if err := answer.SetValue(input.Value); err != nil {
		return nil, err
	}

	return s.answerRepo.Upsert(ctx, answer)
}
