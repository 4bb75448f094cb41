package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("gallari-abc123", "k", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, "k")
	require.NoError(t, err)
	assert.Equal(t, "gallari-abc123", claims.ShopID)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := GenerateToken("gallari-abc123", "k", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("gallari-abc123", "k", -time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ShopID: "gallari-abc123"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]struct{ token, secret string }{
		"wrong secret": {good, "other"},
		"expired":      {expired, "k"},
		"garbage":      {"not.a.token", "k"},
		"alg none":     {unsigned, "k"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestGenerateToken_EmptyShop(t *testing.T) {
	_, err := GenerateToken("", "k", time.Hour)
	assert.Error(t, err)
}
