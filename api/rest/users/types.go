package users

import (
	"context"

	"codeberg.org/algorave/apikit/apikit/users"
)

// user operations the routes need; satisfied by *users.Service
type Service interface {
	Get(ctx context.Context, id string) (*users.User, error)
	List(ctx context.Context, limit, offset int) ([]users.User, int, error)
	UpdateProfile(ctx context.Context, actorID, id string, update users.ProfileUpdate) (*users.User, error)
	Delete(ctx context.Context, actorID, id string) error
}

// UpdateProfileRequest represents the request body for updating user profile
type UpdateProfileRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}
