package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"codeberg.org/algorave/apikit/internal/queue"
)

// handles user database operations
type Repository struct {
	db *pgxpool.Pool
}

// represents a registered user
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// persistence needed by the service; satisfied by *Repository
type Store interface {
	Create(ctx context.Context, email, name, passwordHash string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindCredentials(ctx context.Context, email string) (*User, string, error)
	List(ctx context.Context, limit, offset int) ([]User, int, error)
	UpdateProfile(ctx context.Context, id, name, avatarURL string) (*User, error)
	Delete(ctx context.Context, id string) error
}

// signs access tokens; satisfied by *auth.Issuer
type TokenIssuer interface {
	Generate(userID, email string) (string, error)
	Expiry() time.Duration
}

// business rules for accounts
type Service struct {
	store     Store
	tokens    TokenIssuer
	publisher queue.Publisher
	hashCost  int
	now       func() time.Time
}

// data for creating an account
type Registration struct {
	Email    string
	Name     string
	Password string
}

// contains data for updating a user's profile
type ProfileUpdate struct {
	Name      string
	AvatarURL string
}

// an issued access token
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// published on queue.TopicUserRegistered
type RegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// published on queue.TopicUserDeleted
type DeletedEvent struct {
	UserID    string    `json:"user_id"`
	DeletedAt time.Time `json:"deleted_at"`
}
