package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidFile is returned when an upload is not an acceptable image
var ErrInvalidFile = errors.New("invalid file")

// avatarDir is the sub directory of the upload directory holding avatars
const avatarDir = "avatars"

// localStorage stores uploaded files on the local filesystem
type localStorage struct {
	basePath string
	maxSize  int64
}

// NewLocalStorage creates a new localStorage instance.
// Files are stored under basePath and may not exceed maxSize bytes.
func NewLocalStorage(basePath string, maxSize int64) *localStorage {
	return &localStorage{
		basePath: filepath.Clean(basePath),
		maxSize:  maxSize,
	}
}

// SaveAvatar stores an image read from r and returns its slash separated path,
// e.g. "uploads/avatars/avatar-<uuid>.png". The file type is detected from the content.
func (s *localStorage) SaveAvatar(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}
	if int64(len(data)) > s.maxSize {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidFile, s.maxSize)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%w: only images are allowed, got %s", ErrInvalidFile, mtype.String())
	}

	name := GenerateFileName("avatar", mtype.Extension())
	dir := filepath.Join(s.basePath, avatarDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}

	return path.Join(filepath.ToSlash(s.basePath), avatarDir, name), nil
}

// Delete removes a file previously returned by SaveAvatar.
// Paths outside the storage directory are refused.
func (s *localStorage) Delete(storedPath string) error {
	full := filepath.Clean(filepath.FromSlash(storedPath))
	rel, err := filepath.Rel(s.basePath, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to delete %q outside of %q", storedPath, s.basePath)
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PublicURL returns the URL under which a stored avatar is served
func PublicURL(storedPath string) string {
	return "/uploads/" + avatarDir + "/" + path.Base(storedPath)
}
