package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/google/uuid"
)

// ScoringService converts a session's stored answers into final scores.
// Scores and the certificate id are written exactly once; submitting a
// terminal session is rejected without touching any score field.
type ScoringService struct {
	sessions *SessionService
	txm      repository.TxManager
}

func NewScoringService(sessions *SessionService, txm repository.TxManager) *ScoringService {
	return &ScoringService{
		sessions: sessions,
		txm:      txm,
	}
}

type Scores struct {
	Total     int `json:"total"`
	Reading   int `json:"reading"`
	Listening int `json:"listening"`
	Writing   int `json:"writing"`
	Speaking  int `json:"speaking"`
}

type SubmitResult struct {
	Session       *domain.TestSession
	Scores        Scores
	CertificateID string
}

// Submit finalizes a session: grades every stored answer, bands the section
// scores, mints the certificate id, and persists everything as one update.
func (s *ScoringService) Submit(ctx context.Context, sessionID uuid.UUID, sessionToken string) (*SubmitResult, error) {
	// Same gate as every other session operation: token pairing plus
	// completed payment.
	session, err := s.sessions.Get(ctx, sessionID, sessionToken)
	if err != nil {
		return nil, err
	}

	if session.Terminal() {
		return nil, domain.ErrSessionCompleted
	}

	certificateID := newCertificateID(time.Now())
	now := time.Now()

	var scores Scores
	err = s.txm.Do(ctx, func(repos *repository.Repositories) error {
		answers, err := repos.Answer.GetBySession(ctx, session.ID)
		if err != nil {
			return err
		}

		graded, sectionScores := gradeAnswers(answers)
		scores = Scores{
			Total:     compositeScore(sectionScores[domain.SectionReading], sectionScores[domain.SectionListening], sectionScores[domain.SectionWriting], sectionScores[domain.SectionSpeaking]),
			Reading:   sectionScores[domain.SectionReading],
			Listening: sectionScores[domain.SectionListening],
			Writing:   sectionScores[domain.SectionWriting],
			Speaking:  sectionScores[domain.SectionSpeaking],
		}

		for _, answer := range graded {
			if err := repos.Answer.Update(ctx, answer); err != nil {
				return err
			}
		}

		session.Status = domain.SessionStatusCompleted
		session.CompletedAt = &now
		session.TotalScore = &scores.Total
		session.ReadingScore = &scores.Reading
		session.ListeningScore = &scores.Listening
		session.WritingScore = &scores.Writing
		session.SpeakingScore = &scores.Speaking
		session.CertificateID = &certificateID

		return repos.TestSession.FinalizeScores(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("session %s submitted: total=%d certificate=%s", session.ID, scores.Total, certificateID)

	return &SubmitResult{
		Session:       session,
		Scores:        scores,
		CertificateID: certificateID,
	}, nil
}

// gradeAnswers evaluates every answer and returns the ones that gained a
// correctness flag or item score, plus the banded per-section scores.
func gradeAnswers(answers []*domain.TestAnswer) ([]*domain.TestAnswer, map[domain.Section]int) {
	answered := make(map[domain.Section]int)
	correct := make(map[domain.Section]int)
	rawTotals := make(map[domain.Section]int)
	graded := make([]*domain.TestAnswer, 0, len(answers))

	for _, answer := range answers {
		if !domain.ValidSection(answer.Section) {
			continue
		}

		value, err := answer.Value()
		if err != nil || value.IsEmpty() {
			continue
		}

		answered[answer.Section]++

		switch answer.Section {
		case domain.SectionReading, domain.SectionListening:
			key, ok := answerKey[answer.QuestionID]
			isCorrect := ok && evaluateObjective(answer.QuestionID, value.Text, key)
			if isCorrect {
				correct[answer.Section]++
			}
			answer.IsCorrect = &isCorrect
			graded = append(graded, answer)

		case domain.SectionWriting:
			itemScore := writingItemScore(answer.QuestionID, value.Text)
			rawTotals[answer.Section] += itemScore
			answer.Score = &itemScore
			graded = append(graded, answer)

		case domain.SectionSpeaking:
			itemScore := speakingItemScore(value)
			rawTotals[answer.Section] += itemScore
			answer.Score = &itemScore
			graded = append(graded, answer)
		}
	}

	sectionScores := map[domain.Section]int{
		domain.SectionReading:   bandObjectiveScore(correct[domain.SectionReading], answered[domain.SectionReading]),
		domain.SectionListening: bandObjectiveScore(correct[domain.SectionListening], answered[domain.SectionListening]),
		domain.SectionWriting:   openEndedSectionScore(rawTotals[domain.SectionWriting], answered[domain.SectionWriting]),
		domain.SectionSpeaking:  openEndedSectionScore(rawTotals[domain.SectionSpeaking], answered[domain.SectionSpeaking]),
	}

	return graded, sectionScores
}

// newCertificateID combines a year stamp with a random numeric suffix. It is
// minted once at submission and never regenerated on re-read.
func newCertificateID(now time.Time) string {
	return fmt.Sprintf("EP%d-%04d", now.Year(), rand.Intn(9999))
}
