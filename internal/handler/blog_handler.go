package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/model"
	"inkwell/internal/service"
)

// BlogHandler handles the caller's own blogs.
type BlogHandler struct {
	responder
	blogService service.BlogService
	images      *ImageReader
}

// NewBlogHandler creates a new blog handler.
func NewBlogHandler(blogService service.BlogService, images *ImageReader, log *slog.Logger) *BlogHandler {
	return &BlogHandler{responder: responder{log: log}, blogService: blogService, images: images}
}

// CreateBlogRequest represents a new blog. Image may be an external URL; an
// uploaded "image" file takes precedence.
type CreateBlogRequest struct {
	Title   string `json:"title" form:"title" validate:"required"`
	Content string `json:"content" form:"content" validate:"required"`
	Image   string `json:"image,omitempty" form:"image"`
}

// UpdateBlogRequest carries optional blog fields. Absent fields keep their value.
type UpdateBlogRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Image   *string `json:"image"`
}

// CreateBlog godoc
// @Summary Create a blog
// @Description Accepts JSON, or multipart with an optional "image" file.
// @Tags blogs
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body CreateBlogRequest true "Blog"
// @Success 201 {object} model.Blog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /blogs [post]
func (h *BlogHandler) CreateBlog(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req CreateBlogRequest
	if err := bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return h.fail(c, err)
	}

	upload, closeUpload, err := h.images.Read(c, "image")
	if err != nil {
		return h.fail(c, err)
	}
	defer closeUpload()

	blog, err := h.blogService.Create(c.Request().Context(), me, service.BlogInput{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
		Upload:  upload,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, blog)
}

// ListMyBlogs godoc
// @Summary List the caller's blogs
// @Tags blogs
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Blog
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /blogs/my-blogs [get]
func (h *BlogHandler) ListMyBlogs(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	blogs, err := h.blogService.ListMine(c.Request().Context(), me.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	if blogs == nil {
		blogs = []model.Blog{}
	}
	return c.JSON(http.StatusOK, blogs)
}

// GetBlog godoc
// @Summary Get a blog with its owner
// @Tags blogs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog ID"
// @Success 200 {object} model.BlogView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /blogs/{id} [get]
func (h *BlogHandler) GetBlog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	blog, err := h.blogService.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, blog.View())
}

// UpdateBlog godoc
// @Summary Update one of the caller's blogs
// @Description Only the fields sent are changed. Multipart requests may carry an "image" file.
// @Tags blogs
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog ID"
// @Param request body UpdateBlogRequest false "Fields to change"
// @Success 200 {object} model.Blog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /blogs/{id} [put]
func (h *BlogHandler) UpdateBlog(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}

	update, closeUpload, err := readBlogUpdate(c, h.images)
	if err != nil {
		return h.fail(c, err)
	}
	defer closeUpload()

	blog, err := h.blogService.Update(c.Request().Context(), id, me.UserID, update)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, blog)
}

// DeleteBlog godoc
// @Summary Delete one of the caller's blogs
// @Tags blogs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Blog ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /blogs/{id} [delete]
func (h *BlogHandler) DeleteBlog(c echo.Context) error {
	me, err := caller(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.blogService.Delete(c.Request().Context(), id, me.UserID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Msg: "Blog deleted successfully"})
}

// readBlogUpdate reads a partial blog update from a JSON or multipart body.
func readBlogUpdate(c echo.Context, images *ImageReader) (service.BlogUpdate, func(), error) {
	noop := func() {}
	var req UpdateBlogRequest
	if isMultipart(c) {
		var err error
		if req.Title, err = formField(c, "title"); err != nil {
			return service.BlogUpdate{}, noop, err
		}
		if req.Content, err = formField(c, "content"); err != nil {
			return service.BlogUpdate{}, noop, err
		}
		if req.Image, err = formField(c, "image"); err != nil {
			return service.BlogUpdate{}, noop, err
		}
	} else if err := bind(c, &req); err != nil {
		return service.BlogUpdate{}, noop, err
	}

	upload, closeUpload, err := images.Read(c, "image")
	if err != nil {
		return service.BlogUpdate{}, noop, err
	}
	return service.BlogUpdate{
		BlogPatch: model.BlogPatch{Title: req.Title, Content: req.Content, Image: req.Image},
		Upload:    upload,
	}, closeUpload, nil
}
