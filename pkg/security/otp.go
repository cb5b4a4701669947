package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const otpDigits = 6

// GenerateOTP returns a zero-padded numeric one-time code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

// CompareOTP reports whether the supplied code matches in constant time.
func CompareOTP(expected, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
