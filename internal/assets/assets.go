// Package assets manages the local asset root: served thumbnails and the
// temporary files video uploads are staged through.
package assets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// nameEntropyBytes is the number of random bytes behind each asset name.
// 32 bytes of a CSPRNG make collisions a non-concern.
const nameEntropyBytes = 32

// Manager owns the assets root directory.
type Manager struct {
	root    string
	baseURL string
}

// NewManager creates a Manager and ensures the assets root exists.
func NewManager(root, baseURL string) (*Manager, error) {
	if root == "" {
		return nil, errors.New("assets root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create assets root: %w", err)
	}
	return &Manager{root: root, baseURL: baseURL}, nil
}

// Root returns the assets root directory.
func (m *Manager) Root() string {
	return m.root
}

// NewName generates a collision-resistant, URL-safe asset name with an
// extension derived from the media type.
func (m *Manager) NewName(mediaType string) (string, error) {
	ext, err := extensionForType(mediaType)
	if err != nil {
		return "", err
	}

	buf := make([]byte, nameEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate asset name: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf) + ext, nil
}

// DiskPath returns the on-disk path for an asset name.
func (m *Manager) DiskPath(name string) string {
	return filepath.Join(m.root, name)
}

// URL returns the locally served URL for an asset name.
func (m *Manager) URL(name string) string {
	return fmt.Sprintf("%s/%s", m.baseURL, name)
}

// Save writes an asset from r to the assets root under the given name.
// A failed write removes the partial file.
func (m *Manager) Save(name string, r io.Reader) error {
	path := m.DiskPath(name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create asset file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write asset file: %w", err)
	}

	return f.Close()
}

// StagedFile is a temporary file holding one request's uploaded bytes.
// Close removes every file registered with it; callers defer it so cleanup
// runs on all exit paths.
type StagedFile struct {
	Path  string
	paths []string
}

// Stage copies r into a new temporary file under the assets root named after
// the given asset name.
func (m *Manager) Stage(name string, r io.Reader) (*StagedFile, error) {
	path := filepath.Join(m.root, "upload-"+name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	return &StagedFile{Path: path, paths: []string{path}}, nil
}

// Track registers an additional file to be removed on Close, such as the
// output of a fast-start remux derived from the staged file.
func (s *StagedFile) Track(path string) {
	s.paths = append(s.paths, path)
}

// Close removes the staged file and everything registered with Track.
func (s *StagedFile) Close() error {
	var errs []error
	for _, path := range s.paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	s.paths = nil
	return errors.Join(errs...)
}

// extensionForType maps a media type to a file extension, preferring the
// conventional extension for the common web types.
func extensionForType(mediaType string) (string, error) {
	switch mediaType {
	case "video/mp4":
		return ".mp4", nil
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	}

	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return "", fmt.Errorf("unsupported media type %q", mediaType)
	}
	return exts[0], nil
}
