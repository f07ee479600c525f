package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FirstName    string    `json:"firstName" gorm:"not null"`
	LastName     string    `json:"lastName" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TempRegistration holds unverified signup data until payment confirms it.
// It is consumed exactly once on promotion, or deleted on expiry/failure.
type TempRegistration struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Token        string    `json:"-" gorm:"uniqueIndex;not null"`
	FirstName    string    `json:"firstName" gorm:"not null"`
	LastName     string    `json:"lastName" gorm:"not null"`
	Email        string    `json:"email" gorm:"not null"`
	Phone        string    `json:"phone" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	ExpiresAt    time.Time `json:"expiresAt" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *TempRegistration) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
