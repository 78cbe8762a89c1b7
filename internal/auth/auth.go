package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// shortest accepted HMAC secret
const MinSecretLength = 32

var ErrInvalidToken = errors.New("invalid token")

// creates an issuer; secrets shorter than MinSecretLength are rejected
func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}

	if expiry <= 0 {
		return nil, fmt.Errorf("jwt expiry must be positive")
	}

	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// returns the token lifetime
func (i *Issuer) Expiry() time.Duration {
	return i.expiry
}

// creates a JWT token for the user
func (i *Issuer) Generate(userID, email string) (string, error) {
	now := i.now()

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// validates a JWT token and returns the claims
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
