package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/english-proficiency-api/internal/domain"
	"github.com/dom/english-proficiency-api/internal/payment"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	firstName string
	lastName  string
	email     string
	phone     string
	password  string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		firstName: "Test",
		lastName:  "User",
		email:     fmt.Sprintf("test_%s@example.com", uuid.New().String()[:8]),
		phone:     "0712345678",
		password:  "testpassword123",
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    b.firstName,
		LastName:     b.lastName,
		Email:        b.email,
		Phone:        b.phone,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// TempRegBuilder creates temporary registrations directly in the database
type TempRegBuilder struct {
	email     string
	expiresAt time.Time
}

// NewTempRegBuilder creates a new TempRegBuilder with default values
func NewTempRegBuilder() *TempRegBuilder {
	return &TempRegBuilder{
		email:     fmt.Sprintf("pending_%s@example.com", uuid.New().String()[:8]),
		expiresAt: time.Now().Add(time.Hour),
	}
}

// WithEmail sets the email
func (b *TempRegBuilder) WithEmail(email string) *TempRegBuilder {
	b.email = email
	return b
}

// Expired backdates the expiry
func (b *TempRegBuilder) Expired() *TempRegBuilder {
	b.expiresAt = time.Now().Add(-time.Minute)
	return b
}

// Build creates the registration and returns it with its temp token
func (b *TempRegBuilder) Build(t *testing.T, db *gorm.DB) (*domain.TempRegistration, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("testpassword123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	reg := &domain.TempRegistration{
		ID:           uuid.New(),
		Token:        uuid.New().String() + uuid.New().String(),
		FirstName:    "Pending",
		LastName:     "User",
		Email:        b.email,
		Phone:        "0712345678",
		PasswordHash: string(hashedPassword),
		ExpiresAt:    b.expiresAt,
		CreatedAt:    time.Now(),
	}

	if err := db.Create(reg).Error; err != nil {
		t.Fatalf("failed to create temp registration: %v", err)
	}

	return reg, reg.Token
}

// SessionBuilder creates test sessions with a builder pattern
type SessionBuilder struct {
	userID        *uuid.UUID
	status        domain.SessionStatus
	paymentStatus domain.PaymentState
}

// NewSessionBuilder creates a new SessionBuilder with default values
func NewSessionBuilder() *SessionBuilder {
	return &SessionBuilder{
		status:        domain.SessionStatusPending,
		paymentStatus: domain.PaymentStatePending,
	}
}

// WithUser binds the session to a user
func (b *SessionBuilder) WithUser(userID uuid.UUID) *SessionBuilder {
	b.userID = &userID
	return b
}

// Paid marks the payment as completed
func (b *SessionBuilder) Paid() *SessionBuilder {
	b.paymentStatus = domain.PaymentStateCompleted
	return b
}

// WithStatus sets the session status
func (b *SessionBuilder) WithStatus(status domain.SessionStatus) *SessionBuilder {
	b.status = status
	return b
}

// Build creates the session in the database
func (b *SessionBuilder) Build(t *testing.T, db *gorm.DB) *domain.TestSession {
	t.Helper()

	session := &domain.TestSession{
		ID:            uuid.New(),
		UserID:        b.userID,
		Status:        b.status,
		PaymentStatus: b.paymentStatus,
		CreatedAt:     time.Now(),
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	return session
}

// FakeVerifier is a programmable payment.Verifier for tests. Outcomes are
// registered per reference; unknown references produce the provider-rejected
// error, matching a real verifier asked about a reference it never issued.
type FakeVerifier struct {
	mu      sync.Mutex
	results map[string]*payment.Result
	err     error
}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		results: make(map[string]*payment.Result),
	}
}

// SetResult registers the outcome for a reference
func (f *FakeVerifier) SetResult(reference string, result *payment.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[reference] = result
}

// FailWith makes every Verify call return err, simulating an unreachable
// provider. Pass nil to clear.
func (f *FakeVerifier) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeVerifier) Verify(ctx context.Context, reference string) (*payment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	result, ok := f.results[reference]
	if !ok {
		return nil, fmt.Errorf("%w: transaction reference not found", payment.ErrVerificationFailed)
	}
	return result, nil
}

func (f *FakeVerifier) InitializeMobileMoney(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	return &payment.ChargeResult{
		Reference:   req.Reference,
		DisplayText: "Enter your M-Pesa PIN to complete the payment",
	}, nil
}

// SuccessResult builds a verified charge for a session at the expected
// amount for the currency.
func SuccessResult(sessionID uuid.UUID, currency, reference string) *payment.Result {
	return &payment.Result{
		Status:    payment.StatusSuccess,
		Amount:    payment.ExpectedAmounts[currency],
		Currency:  currency,
		Reference: reference,
		SessionID: sessionID.String(),
	}
}
