package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// creates a new user repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// inserts a user; returns ErrEmailTaken when the email is already registered
func (r *Repository) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryCreate, email, name, passwordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrEmailTaken
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// finds a user by their ID; pgx.ErrNoRows when absent
func (r *Repository) FindByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryFindByID, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// returns the user and password hash for email; pgx.ErrNoRows when absent
func (r *Repository) FindCredentials(ctx context.Context, email string) (*User, string, error) {
	var (
		user User
		hash string
	)

	err := r.db.QueryRow(ctx, queryFindCredentials, email).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
		&hash,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find credentials: %w", err)
	}

	return &user, hash, nil
}

// returns one page of users, newest first, and the total count
func (r *Repository) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, queryCount).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := r.db.Query(ctx, queryList, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

// updates a user's name and avatar URL
func (r *Repository) UpdateProfile(ctx context.Context, id, name, avatarURL string) (*User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryUpdateProfile, name, avatarURL, id))
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// deletes a user; pgx.ErrNoRows when nothing was deleted
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, queryDelete, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
