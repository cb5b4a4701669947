package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOTPFormat(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
		seen[code] = true
	}
	// 50 draws from a million-value space should not all collide.
	require.Greater(t, len(seen), 1)
}

func TestCompareOTP(t *testing.T) {
	require.True(t, CompareOTP("123456", "123456"))
	require.False(t, CompareOTP("123456", "123457"))
	require.False(t, CompareOTP("123456", "12345"))
}
