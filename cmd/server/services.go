package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/auth"
	"codeberg.org/algorave/apikit/internal/config"
	"codeberg.org/algorave/apikit/internal/queue"
)

// builds the token issuer and domain services
func InitializeServices(cfg *config.Config, db *pgxpool.Pool, publisher queue.Publisher) (*Services, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	return &Services{
		Issuer: issuer,
		Users:  users.NewService(users.NewRepository(db), issuer, publisher),
	}, nil
}
