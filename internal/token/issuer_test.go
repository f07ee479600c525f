package token_test

import (
	"testing"

	"github.com/dom/english-proficiency-api/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_Issue(t *testing.T) {
	issuer, err := token.NewIssuer()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok := issuer.Issue()

		// 32 bytes base64url without padding
		assert.Len(t, tok, 43)
		assert.NotContains(t, tok, "+")
		assert.NotContains(t, tok, "/")
		assert.NotContains(t, tok, "=")

		assert.False(t, seen[tok], "token issued twice: %s", tok)
		seen[tok] = true
	}
}
