package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/model"
	"inkwell/internal/service"
)

// UserHandler serves the caller's own profile.
type UserHandler struct {
	responder
	authService service.AuthService
	images      *ImageReader
}

// NewUserHandler creates a profile handler.
func NewUserHandler(authService service.AuthService, images *ImageReader, log *slog.Logger) *UserHandler {
	return &UserHandler{responder: responder{log: log}, authService: authService, images: images}
}

// UpdateProfileRequest carries optional profile fields.
type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// ProfileResponse is returned after a profile update.
type ProfileResponse struct {
	Msg  string     `json:"msg"`
	User model.User `json:"user"`
}

// GetProfile godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/profile [get]
func (h *UserHandler) GetProfile(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	user, err := h.authService.GetProfile(c.Request().Context(), me.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Description Accepts JSON, or multipart with an optional "avatar" image.
// @Tags profile
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest false "Profile fields"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req UpdateProfileRequest
	if isMultipart(c) {
		if req.Name, err = formField(c, "name"); err != nil {
			return h.fail(c, err)
		}
		if req.Email, err = formField(c, "email"); err != nil {
			return h.fail(c, err)
		}
	} else if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	avatar, closeAvatar, err := h.images.Read(c, "avatar")
	if err != nil {
		return h.fail(c, err)
	}
	defer closeAvatar()

	user, err := h.authService.UpdateProfile(c.Request().Context(), me.UserID, service.ProfileUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: avatar,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, ProfileResponse{Msg: "Profile updated successfully", User: *user})
}
