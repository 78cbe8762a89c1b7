package auth

import (
	"net/http"

	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/pipeline"
)

// RegisterHandler godoc
// @Summary Register a new account
// @Description Creates a user and returns it together with an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account details"
// @Success 201 {object} users.Session
// @Failure 400 {object} envelope.Envelope
// @Failure 409 {object} envelope.Envelope
// @Router /api/v1/auth/register [post]
func RegisterHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		in := pipeline.InputOf[RegisterRequest](req)

		session, err := svc.Register(req.Context(), users.Registration{
			Email:    in.Email,
			Name:     in.Name,
			Password: in.Password,
		})
		if err != nil {
			return pipeline.Fail(err)
		}

		req.Logger.Info("user registered", "user_id", session.User.ID)

		return pipeline.Respond(http.StatusCreated, session)
	}
}

// LoginHandler godoc
// @Summary Log in
// @Description Verifies credentials and returns an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} users.Session
// @Failure 400 {object} envelope.Envelope
// @Failure 401 {object} envelope.Envelope
// @Router /api/v1/auth/login [post]
func LoginHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		in := pipeline.InputOf[LoginRequest](req)

		session, err := svc.Login(req.Context(), in.Email, in.Password)
		if err != nil {
			return pipeline.Fail(err)
		}

		return pipeline.Respond(http.StatusOK, session)
	}
}
