package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrFileNotFound is returned when a storage reference does not resolve to
// a stored file.
var ErrFileNotFound = errors.New("file not found")

// LocalStorage keeps uploaded files on disk under a base directory.
// Storage references are paths relative to that directory.
type LocalStorage struct {
	baseDir string
	logger  *zap.Logger
}

func NewLocalStorage(baseDir string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// Save writes the file under a fresh UUID name, keeping the original
// extension, and returns the storage reference.
func (s *LocalStorage) Save(ctx context.Context, r io.Reader, originalFilename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	ref := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(s.baseDir, ref))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return ref, nil
}

// Download resolves a storage reference to the file bytes and MIME type.
func (s *LocalStorage) Download(ctx context.Context, ref string) ([]byte, string, error) {
	// References are flat names; reject anything trying to escape baseDir.
	if ref != filepath.Base(ref) {
		return nil, "", fmt.Errorf("invalid storage reference %q", ref)
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", ErrFileNotFound, ref)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	return data, mimeTypeForExt(filepath.Ext(ref)), nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	if ref != filepath.Base(ref) {
		return fmt.Errorf("invalid storage reference %q", ref)
	}
	err := os.Remove(filepath.Join(s.baseDir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
