package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned when uploaded content is not an accepted image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

// ImageStore persists uploaded images and returns a public reference to them.
type ImageStore interface {
	// Save stores the content under folder and returns the reference to
	// record on the owning entity.
	Save(ctx context.Context, folder string, r io.Reader, contentType string) (string, error)
	// Delete removes a previously saved image. References the store did
	// not produce are ignored.
	Delete(ctx context.Context, ref string) error
	// Owns reports whether ref points into this store. Every ref Delete
	// would act on is owned.
	Owns(ref string) bool
}

// Upload is an image received from a client, already checked by DetectImage.
type Upload struct {
	Body        io.Reader
	ContentType string
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectImage sniffs the leading bytes of an upload and returns its MIME type
// when it is one of the accepted image formats.
func DetectImage(head []byte) (string, error) {
	if len(head) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if allowedImageTypes[m.String()] {
			return m.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, detected.String())
}

// objectName builds a collision free object name for content of contentType.
func objectName(folder, contentType string) string {
	ext := ""
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	name := uuid.New().String() + ext
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}
