package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/service"
)

// AdminHandler handles admin endpoints over every user and blog.
type AdminHandler struct {
	responder
	adminService service.AdminService
	images       *ImageReader
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(adminService service.AdminService, images *ImageReader, log *slog.Logger) *AdminHandler {
	return &AdminHandler{responder: responder{log: log}, adminService: adminService, images: images}
}

// AdminUpdateUserRequest carries optional user fields, including role.
type AdminUpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role"`
}

// UserCountResponse reports the number of users.
type UserCountResponse struct {
	TotalUsers int64 `json:"totalUsers"`
}

// BlogCountResponse reports the number of blogs.
type BlogCountResponse struct {
	TotalBlogs int64 `json:"totalBlogs"`
}

// DeleteUserResponse reports a cascading delete.
type DeleteUserResponse struct {
	Msg               string `json:"msg"`
	DeletedBlogs      int64  `json:"deletedBlogs"`
	IncompleteCleanup bool   `json:"incompleteCleanup"`
}

// ListUsers godoc
// @Summary List users with their blog counts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserWithStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.adminService.ListUsers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	if users == nil {
		users = []model.UserWithStats{}
	}
	return c.JSON(http.StatusOK, users)
}

// CountUsers godoc
// @Summary Count users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserCountResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/users/count [get]
func (h *AdminHandler) CountUsers(c echo.Context) error {
	n, err := h.adminService.CountUsers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, UserCountResponse{TotalUsers: n})
}

// CountBlogs godoc
// @Summary Count blogs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BlogCountResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/blogs/count [get]
func (h *AdminHandler) CountBlogs(c echo.Context) error {
	n, err := h.adminService.CountBlogs(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, BlogCountResponse{TotalBlogs: n})
}

// Stats godoc
// @Summary User and blog totals
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Stats
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.adminService.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ListBlogs godoc
// @Summary List every blog with its owner
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.BlogView
// @Failure 403 {object} errors.ErrorResponse
// @Router /admin/blogs [get]
func (h *AdminHandler) ListBlogs(c echo.Context) error {
	blogs, err := h.adminService.ListBlogs(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, model.Views(blogs))
}

// ListUserBlogs godoc
// @Summary List one user's blogs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {array} model.Blog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id}/blogs [get]
func (h *AdminHandler) ListUserBlogs(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	blogs, err := h.adminService.ListBlogsForUser(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	if blogs == nil {
		blogs = []model.Blog{}
	}
	return c.JSON(http.StatusOK, blogs)
}

// UpdateUser godoc
// @Summary Update any user, including role
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body AdminUpdateUserRequest false "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [put]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req AdminUpdateUserRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	patch := model.UserPatch{Name: req.Name, Email: req.Email}
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return h.fail(c, errors.NewValidationError(err.Error()))
		}
		patch.Role = &role
	}

	user, err := h.adminService.UpdateUser(c.Request().Context(), id, patch)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user and all of their blogs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} DeleteUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	result, err := h.adminService.DeleteUser(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, DeleteUserResponse{
		Msg:               "User deleted successfully",
		DeletedBlogs:      result.DeletedBlogs,
		IncompleteCleanup: result.IncompleteCleanup,
	})
}

// UpdateBlog godoc
// @Summary Update any blog
// @Tags admin
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog ID"
// @Param request body UpdateBlogRequest false "Fields to change"
// @Success 200 {object} model.Blog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/blogs/{id} [put]
func (h *AdminHandler) UpdateBlog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	update, closeUpload, err := readBlogUpdate(c, h.images)
	if err != nil {
		return h.fail(c, err)
	}
	defer closeUpload()

	blog, err := h.adminService.UpdateBlog(c.Request().Context(), id, update)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, blog)
}

// DeleteBlog godoc
// @Summary Delete any blog
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/blogs/{id} [delete]
func (h *AdminHandler) DeleteBlog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.adminService.DeleteBlog(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Blog deleted successfully"})
}
