package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Compile-time check that FileSystem implements Storage.
var _ Storage = (*FileSystem)(nil)

// FileSystem implements Storage using the local filesystem rooted at a single
// media directory. All paths are resolved against the root and rejected if
// they would escape it.
type FileSystem struct {
	root string
}

// NewFileSystem creates a new FileSystem storage rooted at root.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{root: root}
}

// fullPath resolves a relative blob path against the media root. It returns
// ErrInvalidPath when the cleaned path would land outside the root.
func (fs *FileSystem) fullPath(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return "", ErrInvalidPath
	}
	full := filepath.Join(fs.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(fs.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

// Store writes data to disk using atomic write (temp file + rename).
// It returns the number of bytes written.
func (fs *FileSystem) Store(path string, data io.Reader) (int64, error) {
	full, err := fs.fullPath(path)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Write to a temp file in the same directory for atomic rename.
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, full); err != nil {
		return 0, fmt.Errorf("renaming temp file to %s: %w", full, err)
	}

	// Rename succeeded; prevent deferred cleanup from removing the final file.
	tmpPath = ""

	return n, nil
}

// Retrieve opens the stored blob and returns an io.ReadCloser.
func (fs *FileSystem) Retrieve(path string) (io.ReadCloser, error) {
	full, err := fs.fullPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening file %s: %w", full, err)
	}
	return f, nil
}

// Delete removes the blob at path. It is idempotent: deleting a non-existent
// blob returns no error.
func (fs *FileSystem) Delete(path string) error {
	full, err := fs.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file %s: %w", full, err)
	}
	return nil
}

// Exists checks whether a blob exists at path.
func (fs *FileSystem) Exists(path string) (bool, error) {
	full, err := fs.fullPath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking file %s: %w", full, err)
}
