package router

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"inkwell/internal/config"
	"inkwell/internal/errors"
	"inkwell/internal/handler"
	"inkwell/internal/middleware"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *slog.Logger,
	gate *middleware.Authenticator,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	blogHandler *handler.BlogHandler,
	adminHandler *handler.AdminHandler,
) {
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	if cfg.MaxUploadBytes > 0 {
		// Leave room for the other multipart fields next to the file.
		e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
			Limit: formatBytes(cfg.MaxUploadBytes + 1<<20),
		}))
	}

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = errorHandler(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.StorageDriver == "local" {
		e.Static("/uploads", cfg.UploadDir)
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require a bearer token)
	secured := api.Group("", gate.RequireAuth())

	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/auth/profile", userHandler.GetProfile)
	secured.PUT("/auth/profile", userHandler.UpdateProfile)

	// Blog routes
	secured.POST("/blogs", blogHandler.CreateBlog)
	secured.GET("/blogs/my-blogs", blogHandler.ListMyBlogs)
	secured.GET("/blogs/:id", blogHandler.GetBlog)
	secured.PUT("/blogs/:id", blogHandler.UpdateBlog)
	secured.DELETE("/blogs/:id", blogHandler.DeleteBlog)

	// Admin routes
	admin := secured.Group("/admin", middleware.AdminGuard)

	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/count", adminHandler.CountUsers)
	admin.GET("/users/:id/blogs", adminHandler.ListUserBlogs)
	admin.PUT("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/blogs", adminHandler.ListBlogs)
	admin.GET("/blogs/count", adminHandler.CountBlogs)
	admin.PUT("/blogs/:id", adminHandler.UpdateBlog)
	admin.DELETE("/blogs/:id", adminHandler.DeleteBlog)
}

// errorHandler renders every error as an ErrorResponse. Errors raised by
// echo itself (unknown route, oversized body) carry a plain message and get
// a code derived from their status.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case errors.ErrorResponse:
				body = msg
			case string:
				body = errors.ErrorResponse{Error: msg, Code: statusCode(status)}
			default:
				body = errors.ErrorResponse{Error: http.StatusText(status), Code: statusCode(status)}
			}
		} else {
			e.Logger.Error(err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "BAD_REQUEST"
	}
}

// formatBytes renders n in the "<n>K" form accepted by the body limit middleware.
func formatBytes(n int64) string {
	return strconv.FormatInt((n+1023)/1024, 10) + "K"
}
