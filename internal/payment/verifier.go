// Package payment defines the normalized payment-verifier capability the
// core consumes and its Paystack implementation. The core never touches the
// provider wire format directly; it sees only Result values.
package payment

import (
	"context"
	"strings"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Result is the normalized outcome of verifying a provider reference.
type Result struct {
	Status          Status
	Amount          int64
	Currency        string
	Reference       string
	SessionID       string // from provider metadata when present
	GatewayResponse string
}

// ChargeRequest initializes an asynchronous mobile-money charge.
type ChargeRequest struct {
	Email     string
	Amount    int64
	Phone     string
	SessionID string
	FirstName string
	LastName  string
	Reference string
}

// ChargeResult reports the provider's acknowledgement of an initialized
// charge; the actual outcome arrives later via verify polling or webhook.
type ChargeResult struct {
	Reference   string
	DisplayText string
}

type Verifier interface {
	// Verify resolves a provider reference into a normalized Result.
	Verify(ctx context.Context, reference string) (*Result, error)
	// InitializeMobileMoney starts an asynchronous mobile-money charge.
	InitializeMobileMoney(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ExpectedAmounts is the fixed table of accepted charge amounts in minor
// units per currency: $16.00, ₦16,000 and KES 1,900.
var ExpectedAmounts = map[string]int64{
	"USD": 1600,
	"NGN": 1600000,
	"KES": 190000,
}

// AmountTolerance is the accepted variance around the expected amount,
// absorbing currency conversion rounding.
const AmountTolerance = 0.05

// AmountWithinTolerance reports whether amount is within the tolerance band
// of the expected amount for currency. Unknown currencies are never valid.
func AmountWithinTolerance(currency string, amount int64) bool {
	expected, ok := ExpectedAmounts[currency]
	if !ok {
		return false
	}
	variance := float64(expected) * AmountTolerance
	diff := float64(amount - expected)
	if diff < 0 {
		diff = -diff
	}
	return diff <= variance
}

// SessionIDFromReference extracts the session id from a structured reference
// of the form <prefix>_<sessionId>_<timestamp>. Metadata-supplied session ids
// take precedence; this is the fallback for providers that drop metadata.
func SessionIDFromReference(reference string) string {
	if !strings.Contains(reference, "_") {
		return ""
	}
	parts := strings.Split(reference, "_")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
