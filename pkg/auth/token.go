package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed JWT for the provided payload using the configured TTL.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute
	return mint(cfg, now, payload, TokenKindAccess, ttl)
}

// MintResetToken issues a short-lived token that only the password-reset
// endpoint accepts.
func MintResetToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	ttl := cfg.ResetTokenTTL()
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return mint(cfg, now, payload, TokenKindReset, ttl)
}

func mint(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload, kind TokenKind, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("jwt ttl must be positive")
	}
	if payload.UserID <= 0 {
		return "", fmt.Errorf("user id is required")
	}

	claims := AccessTokenClaims{
		UserID:  payload.UserID,
		Email:   strings.ToLower(strings.TrimSpace(payload.Email)),
		IsAdmin: payload.IsAdmin,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   claimsSubject(payload.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.Kind == "" {
		claims.Kind = TokenKindAccess
	}

	return claims, nil
}

func claimsSubject(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}
