package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pettag-service/pkg/config"
)

var (
	signingKey      []byte
	expirationHours int
)

// ErrInvalidToken is returned when a token fails signature or claims checks
var ErrInvalidToken = errors.New("invalid or expired token")

// UserClaims represents the JWT claims issued by the identity provider
type UserClaims struct {
	ExternalID string `json:"sub_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// Initialize sets the signing key and expiration from configuration
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	expirationHours = cfg.ExpirationHours
}

// GenerateToken creates a signed token for the given subject. Used by tests
// and local development; production tokens come from the identity provider.
func GenerateToken(externalID, email string) (string, error) {
	claims := UserClaims{
		ExternalID: externalID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   externalID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expirationHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
