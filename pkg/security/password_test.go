package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	// Low-cost parameters keep the test fast; production values come from env.
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3r$ecret", testPasswordConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("Sup3r$ecret", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	cfg := testPasswordConfig()
	first, err := HashPassword("Sup3r$ecret", cfg)
	require.NoError(t, err)
	second, err := HashPassword("Sup3r$ecret", cfg)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("pw", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		password string
		strong   bool
	}{
		{"Sup3r$ecret", true},
		{"Aa1!aaaa", true},
		{"short1!", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecials11", false},
	}
	for _, tc := range tests {
		require.Equal(t, tc.strong, IsStrongPassword(tc.password), "password %q", tc.password)
	}
}
