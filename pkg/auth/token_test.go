package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "vruksha-api",
		ExpirationMinutes: 60,
		ResetTTLMinutes:   10,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		UserID:  42,
		Email:   "User@Example.com",
		IsAdmin: true,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, 42, claims.UserID)
	require.Equal(t, "user@example.com", claims.Email)
	require.True(t, claims.IsAdmin)
	require.Equal(t, TokenKindAccess, claims.Kind)
	require.Equal(t, "user:42", claims.Subject)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "someone-else"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestResetTokenCarriesResetKind(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintResetToken(cfg, time.Now(), AccessTokenPayload{UserID: 9, Email: "r@x.y"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, TokenKindReset, claims.Kind)
}

func TestMintRequiresUserID(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{Email: "a@b.c"})
	require.Error(t, err)
}
