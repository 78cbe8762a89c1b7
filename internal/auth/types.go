package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// signs and verifies HS256 access tokens
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}
