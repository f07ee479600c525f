package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment records a provider charge. ProviderReference is the idempotency
// key: a duplicate webhook or verify call for the same reference updates the
// existing row instead of inserting a second one.
type Payment struct {
	ID                uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID         uuid.UUID     `json:"sessionId" gorm:"type:uuid;not null;index"`
	ProviderReference string        `json:"providerReference" gorm:"uniqueIndex;not null"`
	Amount            int64         `json:"amount" gorm:"not null"`
	Status            PaymentStatus `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}
