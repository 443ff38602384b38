package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())

	before := time.Now()
	token, expiresAt, err := issuer.Issue("family-123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, before.Add(24*time.Hour), expiresAt, 2*time.Second)

	familyID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "family-123", familyID)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	issuedAt := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issuedAt }
	token, _, err := issuer.Issue("family-123")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	other, err := NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := other.Issue("family-123")
	require.NoError(t, err)

	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnexpectedAlgorithm(t *testing.T) {
	claims := Claims{
		FamilyID: "family-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestParseRejectsGarbage(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := issuer.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}
