package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusSubmitted  SessionStatus = "submitted"
)

type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
)

// TestSession is the aggregate root for answers and payments. UserID stays
// nil for pre-payment sessions until promotion links a durable account.
type TestSession struct {
	ID             uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID         *uuid.UUID    `json:"userId" gorm:"type:uuid;index"`
	Status         SessionStatus `json:"status" gorm:"not null;default:'pending'"`
	PaymentStatus  PaymentState  `json:"paymentStatus" gorm:"not null;default:'pending'"`
	StartedAt      *time.Time    `json:"startedAt"`
	CompletedAt    *time.Time    `json:"completedAt"`
	TotalScore     *int          `json:"totalScore"`
	ReadingScore   *int          `json:"readingScore"`
	ListeningScore *int          `json:"listeningScore"`
	WritingScore   *int          `json:"writingScore"`
	SpeakingScore  *int          `json:"speakingScore"`
	CertificateID  *string       `json:"certificateId"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Terminal reports whether the session has reached a final state and may no
// longer be resumed, patched, or rescored.
func (s *TestSession) Terminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusSubmitted
}

func (s *TestSession) Paid() bool {
	return s.PaymentStatus == PaymentStateCompleted
}
