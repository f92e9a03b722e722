package service

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/storage"
)

// Image folders inside the configured store.
const (
	blogImageFolder = "blogs"
	avatarFolder    = "avatars"
)

// userErr translates repository errors for user rows.
func userErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.ErrDuplicateEmail
	default:
		return err
	}
}

// blogErr translates repository errors for blog rows.
func blogErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrBlogNotFound
	}
	return err
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(field + " is required")
	}
	return nil
}

// externalImage rejects a client supplied image ref that points into the
// store. Stored images are only ever referenced through saveImage, so
// deleting a blog or replacing its image cannot reach another user's file.
func externalImage(store storage.ImageStore, ref string) error {
	if ref != "" && store.Owns(ref) {
		return errors.NewValidationError("image must be an external URL or an uploaded file")
	}
	return nil
}

// saveImage stores an upload, returning "" when there is nothing to store.
func saveImage(ctx context.Context, store storage.ImageStore, folder string, up *storage.Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	return store.Save(ctx, folder, up.Body, up.ContentType)
}

// removeImages deletes stored images best-effort. It reports false when any
// removal failed; the failure is logged and never returned.
func removeImages(ctx context.Context, store storage.ImageStore, log *slog.Logger, refs ...string) bool {
	ok := true
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if err := store.Delete(ctx, ref); err != nil {
			ok = false
			log.WarnContext(ctx, "image cleanup failed", "ref", ref, "error", err)
		}
	}
	return ok
}
