package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	responder
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{log: log}, authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents an authentication response.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      model.SafeUser `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	_, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusCreated, MessageResponse{Msg: "User registered successfully"})
}

// Login godoc
// @Summary Login user
// @Description Unknown emails are reported as 400 USER_NOT_FOUND.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: errors.ErrUserNotFound.Error(),
				Code:  "USER_NOT_FOUND",
			})
		}
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

// Logout godoc
// @Summary Logout user
// @Description Revokes the presented token until it expires.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := auth.ClaimsFrom(c.Request().Context())
	if !ok {
		return h.fail(c, errors.ErrUnauthorized)
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Logged out successfully"})
}
