package users

import (
	"errors"
	"net/http"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
)

// domain failure kinds registered with the error registry at startup
const (
	KindUserExists         apperrors.Kind = "user_exists"
	KindInvalidCredentials apperrors.Kind = "invalid_credentials"
)

// returned by the repository when the email is already registered
var ErrEmailTaken = errors.New("email already registered")

// registry entries for the domain kinds
func ErrorEntries() []apperrors.Entry {
	return []apperrors.Entry{
		{
			Kind:    KindUserExists,
			Status:  http.StatusConflict,
			Code:    "USER_EXISTS",
			Message: "a user with this email already exists",
			Expose:  true,
		},
		{
			Kind:    KindInvalidCredentials,
			Status:  http.StatusUnauthorized,
			Code:    "INVALID_CREDENTIALS",
			Message: "invalid email or password",
			Expose:  true,
		},
	}
}
