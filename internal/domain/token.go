package domain

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	// TokenTypeAuth scopes access to a user account. 24-hour validity.
	TokenTypeAuth TokenType = "auth"
	// TokenTypeSession scopes access to one test session. 4-hour validity.
	// Usable without a durable account, which is what makes the anonymous
	// pre-payment flow possible.
	TokenTypeSession TokenType = "session"
)

// Token is an opaque bearer credential. SubjectID is a user id for auth
// tokens and a session id for session tokens. A token never changes subject.
type Token struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null"`
	SubjectID uuid.UUID `json:"subjectId" gorm:"type:uuid;not null"`
	Type      TokenType `json:"type" gorm:"not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
