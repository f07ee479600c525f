// Package token generates the opaque bearer tokens used for temporary
// registrations, session access, and account auth. The issuer is
// purpose-agnostic; callers record type and expiry alongside the token.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const entropyBytes = 32 // 256 bits

type Issuer struct{}

// NewIssuer verifies the secure random source once at startup. A failing RNG
// is a fatal configuration problem, not a runtime error.
func NewIssuer() (*Issuer, error) {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("secure random source unavailable: %w", err)
	}
	return &Issuer{}, nil
}

// Issue returns a URL-safe token with 256 bits of entropy.
func (i *Issuer) Issue() string {
	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read never fails on supported platforms once the startup
		// check has passed.
		panic(fmt.Sprintf("secure random source failed: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
