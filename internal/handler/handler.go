package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/storage"
)

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// responder turns domain errors into JSON error responses. Errors that map
// to a 500 are logged with the request id; their text never reaches the client.
type responder struct {
	log *slog.Logger
}

func (r responder) fail(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		r.log.ErrorContext(c.Request().Context(), "request failed",
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bind decodes the request body, reporting malformed input as a validation error.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return errors.NewValidationError("invalid request body")
	}
	return nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidID
	}
	return id, nil
}

// caller returns the identity attached by the auth middleware.
func caller(c echo.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFrom(c.Request().Context())
	if !ok {
		return auth.Identity{}, errors.ErrUnauthorized
	}
	return id, nil
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formField returns the value of a multipart field, or nil when it was not sent.
func formField(c echo.Context, name string) (*string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.NewValidationError("invalid multipart form")
	}
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil, nil
	}
	v := values[0]
	return &v, nil
}

// ImageReader extracts and checks image uploads from multipart requests.
type ImageReader struct {
	maxBytes int64
}

// NewImageReader creates an ImageReader accepting files up to maxBytes.
func NewImageReader(maxBytes int64) *ImageReader {
	return &ImageReader{maxBytes: maxBytes}
}

// Read returns the uploaded image in field, or nil when none was sent. The
// returned close func must be called once the upload has been consumed.
func (r *ImageReader) Read(c echo.Context, field string) (*storage.Upload, func(), error) {
	noop := func() {}
	if !isMultipart(c) {
		return nil, noop, nil
	}
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, noop, nil
		}
		return nil, noop, errors.NewValidationError("invalid multipart form")
	}
	if r.maxBytes > 0 && header.Size > r.maxBytes {
		return nil, noop, errors.NewValidationError(fmt.Sprintf("%s exceeds %d bytes", field, r.maxBytes))
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("open upload: %w", err)
	}
	closeFile := func() { _ = file.Close() }

	contentType, err := sniff(file)
	if err != nil {
		closeFile()
		return nil, noop, err
	}
	return &storage.Upload{Body: file, ContentType: contentType}, closeFile, nil
}

// sniff detects the image type from the first bytes and rewinds the file.
func sniff(file multipart.File) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	contentType, err := storage.DetectImage(head[:n])
	if err != nil {
		return "", errors.NewValidationError(err.Error())
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return contentType, nil
}
