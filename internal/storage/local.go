package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"clipforge/internal/fileutil"
)

// Local stores media files under a base directory and serves them back as
// file:// URLs.
type Local struct {
	basePath string
}

// NewLocal creates the base directory if needed and returns a Local store.
func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{basePath: basePath}, nil
}

// Save writes the stream under a generated key preserving the original
// extension. Partial writes are removed.
func (l *Local) Save(r io.Reader, info FileInfo) (string, error) {
	ext := filepath.Ext(info.Filename)
	if ext == "" {
		ext = ".mp4"
	}

	key := uuid.NewString() + ext
	fullPath := filepath.Join(l.basePath, key)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("save file: %w", err)
	}

	return key, nil
}

// ImportFile copies a local file into the store with hash and size
// verification, so a truncated read of an in-flight recording is caught
// before the pipeline picks it up.
func (l *Local) ImportFile(path string, info FileInfo) (string, error) {
	ext := filepath.Ext(info.Filename)
	if ext == "" {
		ext = filepath.Ext(path)
	}
	if ext == "" {
		ext = ".mp4"
	}

	key := uuid.NewString() + ext
	fullPath := filepath.Join(l.basePath, key)
	if err := fileutil.CopyFileVerified(path, fullPath); err != nil {
		return "", fmt.Errorf("import file: %w", err)
	}
	return key, nil
}

// Open returns a reader for a previously stored object.
func (l *Local) Open(key string) (io.ReadSeekCloser, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored object.
func (l *Local) Delete(key string) error {
	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns a file:// URL for a stored object.
func (l *Local) URL(key string) string {
	return "file://" + filepath.Join(l.basePath, filepath.Clean(key))
}

// Size returns the stored object's size in bytes.
func (l *Local) Size(key string) (int64, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	return info.Size(), nil
}

func (l *Local) resolve(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if cleaned == "" || strings.Contains(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.basePath, cleaned), nil
}
