package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore keeps images on the local filesystem. Saved images are served
// by the HTTP server under URLPrefix.
type LocalStore struct {
	root      string
	urlPrefix string
}

// Ensure LocalStore implements ImageStore
var _ ImageStore = (*LocalStore)(nil)

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{root: root, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

// Root returns the directory images are written to.
func (s *LocalStore) Root() string {
	return s.root
}

// Save writes the image to disk and returns its public path.
func (s *LocalStore) Save(ctx context.Context, folder string, r io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(folder, contentType)
	dest := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("finalize image: %w", err)
	}
	tmpPath = ""

	return path.Join(s.urlPrefix, name), nil
}

// Owns reports whether ref lies under the public prefix.
func (s *LocalStore) Owns(ref string) bool {
	return strings.HasPrefix(ref, s.urlPrefix+"/")
}

// Delete removes the file behind ref. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	rel, ok := s.relative(ref)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image %s: %w", ref, err)
	}
	return nil
}

// relative maps a public reference back to a path below root, rejecting
// anything that would escape it.
func (s *LocalStore) relative(ref string) (string, bool) {
	if !s.Owns(ref) {
		return "", false
	}
	rel := path.Clean(strings.TrimPrefix(ref, s.urlPrefix+"/"))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return "", false
	}
	return rel, true
}
