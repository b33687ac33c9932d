package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestJWT(t *testing.T, secret, issuer string, clock func() time.Time) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:         secret,
		Issuer:         issuer,
		AccessTokenTTL: time.Hour,
		Clock:          clock,
	})
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "   "})
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestJWT(t, "super-secret", "fi", func() time.Time { return current })

	token, expiresAt, err := svc.GenerateAccessToken(AccessTokenInput{
		UserID:    "user-123",
		SessionID: "session-456",
		Provider:  " Google ",
	})
	require.NoError(t, err)
	require.True(t, expiresAt.Equal(current.Add(time.Hour)))
	require.Equal(t, time.Hour, svc.TTL())

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "session-456", claims.SessionID)
	require.Equal(t, "google", claims.Provider)
	require.Equal(t, jwt.ClaimStrings{AccessTokenAudience}, claims.Audience)
	require.True(t, claims.IssuedAt.Time.Equal(current))
}

func TestValidateAccessTokenFailures(t *testing.T) {
	current := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	svc := newTestJWT(t, "issuer-secret", "fi", clock)

	token, _, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	_, err = newTestJWT(t, "other-secret", "fi", clock).ValidateAccessToken(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = newTestJWT(t, "issuer-secret", "someone-else", clock).ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	_, err = svc.ValidateAccessToken("")
	require.ErrorIs(t, err, ErrTokenMissing)

	current = current.Add(2 * time.Hour)
	_, err = svc.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateAccessTokenRejectsForeignAudience(t *testing.T) {
	now := time.Now()
	claims := &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Audience:  jwt.ClaimStrings{"another-service"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("shared"))
	require.NoError(t, err)

	svc := newTestJWT(t, "shared", "", nil)
	_, err = svc.ValidateAccessToken(token)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}
