package users

import (
	"net/http"

	"codeberg.org/algorave/apikit/api/rest/pagination"
	"codeberg.org/algorave/apikit/apikit/users"
	"codeberg.org/algorave/apikit/internal/pipeline"
)

// ListHandler godoc
// @Summary List users
// @Description Returns a page of users, newest first
// @Tags users
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Items to skip"
// @Success 200 {object} pagination.Page[users.User]
// @Failure 400 {object} envelope.Envelope
// @Failure 401 {object} envelope.Envelope
// @Router /api/v1/users [get]
// @Security BearerAuth
func ListHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		params, err := pagination.FromQuery(req.Query)
		if err != nil {
			return pipeline.Fail(err)
		}

		list, total, err := svc.List(req.Context(), params.Limit, params.Offset)
		if err != nil {
			return pipeline.Fail(err)
		}

		return pipeline.Respond(http.StatusOK, pagination.NewPage(list, params, total))
	}
}

// MeHandler godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} users.User
// @Failure 401 {object} envelope.Envelope
// @Router /api/v1/users/me [get]
// @Security BearerAuth
func MeHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		user, err := svc.Get(req.Context(), req.UserID)
		if err != nil {
			return pipeline.Fail(err)
		}

		return pipeline.Respond(http.StatusOK, user)
	}
}

// GetHandler godoc
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} users.User
// @Failure 401 {object} envelope.Envelope
// @Failure 404 {object} envelope.Envelope
// @Router /api/v1/users/{id} [get]
// @Security BearerAuth
func GetHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		user, err := svc.Get(req.Context(), req.Param("id"))
		if err != nil {
			return pipeline.Fail(err)
		}

		return pipeline.Respond(http.StatusOK, user)
	}
}

// UpdateProfileHandler godoc
// @Summary Update user profile
// @Description Updates the name and avatar of the authenticated user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body UpdateProfileRequest true "Profile update"
// @Success 200 {object} users.User
// @Failure 400 {object} envelope.Envelope
// @Failure 403 {object} envelope.Envelope
// @Failure 404 {object} envelope.Envelope
// @Router /api/v1/users/{id} [put]
// @Security BearerAuth
func UpdateProfileHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		in := pipeline.InputOf[UpdateProfileRequest](req)

		user, err := svc.UpdateProfile(req.Context(), req.UserID, req.Param("id"), users.ProfileUpdate{
			Name:      in.Name,
			AvatarURL: in.AvatarURL,
		})
		if err != nil {
			return pipeline.Fail(err)
		}

		return pipeline.Respond(http.StatusOK, user)
	}
}

// DeleteHandler godoc
// @Summary Delete account
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} DeleteResponse
// @Failure 403 {object} envelope.Envelope
// @Failure 404 {object} envelope.Envelope
// @Router /api/v1/users/{id} [delete]
// @Security BearerAuth
func DeleteHandler(svc Service) pipeline.Handler {
	return func(req *pipeline.Request) pipeline.Outcome {
		if err := svc.Delete(req.Context(), req.UserID, req.Param("id")); err != nil {
			return pipeline.Fail(err)
		}

		req.Logger.Info("user deleted", "user_id", req.UserID)

		return pipeline.Respond(http.StatusOK, DeleteResponse{Message: "account deleted"})
	}
}
