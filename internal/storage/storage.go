package storage

import (
	"errors"
	"io"
)

// ErrNotFound is returned when no blob exists at the requested path.
var ErrNotFound = errors.New("blob not found")

// ErrInvalidPath is returned when a path would resolve outside the media root.
var ErrInvalidPath = errors.New("path escapes media root")

// Storage defines the interface for blob storage. Blobs are addressed by a
// relative path under a single media root, e.g. "images/<id>.jpg" or
// "thumbnails/200/<id>_200.jpg".
type Storage interface {
	// Store writes blob data at the given relative path and returns the
	// number of bytes written. Writes are atomic: a partially written blob
	// is never visible at the final path.
	Store(path string, data io.Reader) (int64, error)

	// Retrieve returns a ReadCloser for the blob at the given relative path.
	Retrieve(path string) (io.ReadCloser, error)

	// Delete removes the blob at the given relative path.
	Delete(path string) error

	// Exists checks whether a blob exists at the given relative path.
	Exists(path string) (bool, error)
}
