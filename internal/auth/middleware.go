package auth

import (
	"strings"

	apperrors "codeberg.org/algorave/apikit/internal/errors"
	"codeberg.org/algorave/apikit/internal/pipeline"
)

// rejects requests without a valid bearer token and binds the user to the request
func (i *Issuer) Required() pipeline.Stage {
	return pipeline.Stage{
		Name: "auth",
		Run: func(req *pipeline.Request) pipeline.Outcome {
			token, ok := bearerToken(req.Header.Get("Authorization"))
			if !ok {
				return pipeline.Fail(apperrors.Unauthorized("authorization header required"))
			}

			claims, err := i.Validate(token)
			if err != nil {
				return pipeline.Fail(apperrors.Unauthorized("invalid or expired token").WithCause(err))
			}

			req.UserID = claims.UserID
			req.Email = claims.Email

			return pipeline.Continue()
		},
	}
}

// binds the user when a valid bearer token is present but doesn't require it
func (i *Issuer) Optional() pipeline.Stage {
	return pipeline.Stage{
		Name: "optional_auth",
		Run: func(req *pipeline.Request) pipeline.Outcome {
			token, ok := bearerToken(req.Header.Get("Authorization"))
			if !ok {
				return pipeline.Continue()
			}

			if claims, err := i.Validate(token); err == nil {
				req.UserID = claims.UserID
				req.Email = claims.Email
			}

			return pipeline.Continue()
		},
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}
