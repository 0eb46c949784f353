package local

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/victorsanmartin/ferromart-backend/pkg/config"
)

// Store writes media blobs under a single root directory. Keys are
// forward-slash relative paths and resolve inside the root only.
type Store struct {
	root      string
	publicURL string
}

func NewStore(cfg config.StorageConfig) (*Store, error) {
	if cfg.RootDir == "" {
		return nil, errors.New("storage root dir is required")
	}
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Store{
		root:      root,
		publicURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Save writes the blob at key, creating parent directories as needed.
func (s *Store) Save(key string, data []byte) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob is present at key.
func (s *Store) Exists(key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Size returns the byte size of the blob at key.
func (s *Store) Size(key string) (int64, error) {
	full, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return 0, fmt.Errorf("stat blob %s: %w", key, err)
	}
	return info.Size(), nil
}

// Delete removes the blob at key. Missing blobs are not an error.
func (s *Store) Delete(key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL a stored key is served under.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + strings.TrimLeft(path.Clean(key), "/")
}

func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("blob key is required")
	}
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
