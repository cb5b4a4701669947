package auth

import "github.com/golang-jwt/jwt/v5"

// TokenKind distinguishes login access tokens from short-lived password-reset
// tokens issued after OTP verification.
type TokenKind string

const (
	TokenKindAccess TokenKind = "access"
	TokenKindReset  TokenKind = "reset"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  int
	Email   string
	IsAdmin bool
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  int       `json:"user_id"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"is_admin"`
	Kind    TokenKind `json:"kind"`
	jwt.RegisteredClaims
}
