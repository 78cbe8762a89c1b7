package auth

import (
	"context"

	"codeberg.org/algorave/apikit/apikit/users"
)

// account operations the auth routes need; satisfied by *users.Service
type Service interface {
	Register(ctx context.Context, reg users.Registration) (*users.Session, error)
	Login(ctx context.Context, email, password string) (*users.Session, error)
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
