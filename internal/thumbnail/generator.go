// Package thumbnail implements lazy, cached generation of derived thumbnail
// assets. Each (image, dimension) pair is generated at most once and reused;
// a failed generation leaves the cache row empty so the next request retries.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/imageproc"
	"github.com/mlevan/imagetier/internal/model"
	"github.com/mlevan/imagetier/internal/storage"
)

// ErrGenerationFailed is returned when the source image cannot be decoded or
// the derived asset cannot be produced.
var ErrGenerationFailed = errors.New("thumbnail generation failed")

type Generator struct {
	db    database.Database
	store storage.Storage
}

func NewGenerator(db database.Database, store storage.Storage) *Generator {
	return &Generator{db: db, store: store}
}

// GetOrCreate returns the storage path of the derived thumbnail for img at
// dimension, generating and persisting it on first request. The key row is
// reserved up front; its path is only set after the blob is fully written, so
// concurrent callers may duplicate work but never publish a partial asset.
func (g *Generator) GetOrCreate(img *model.Image, dimension int) (string, error) {
	if err := g.db.ReserveThumbnail(img.ID, dimension); err != nil {
		return "", fmt.Errorf("reserve thumbnail row: %w", err)
	}

	th, err := g.db.GetThumbnail(img.ID, dimension)
	if err != nil {
		return "", fmt.Errorf("load thumbnail row: %w", err)
	}
	if th.StoragePath != "" {
		return th.StoragePath, nil
	}

	rc, err := g.store.Retrieve(img.StoragePath)
	if err != nil {
		return "", fmt.Errorf("%w: source blob unavailable: %v", ErrGenerationFailed, err)
	}
	defer rc.Close()

	data, format, err := imageproc.Thumbnail(rc, dimension)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	dst := derivedPath(img.StoragePath, dimension, format)
	if _, err := g.store.Store(dst, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("store thumbnail blob: %w", err)
	}

	if err := g.db.SetThumbnailPath(img.ID, dimension, dst); err != nil {
		return "", fmt.Errorf("publish thumbnail row: %w", err)
	}
	return dst, nil
}

// derivedPath builds the deterministic storage path for a derived asset, e.g.
// "thumbnails/200/48b9...c1_200.jpg" for a source at "images/48b9...c1.jpg".
func derivedPath(sourcePath string, dimension int, format string) string {
	base := path.Base(sourcePath)
	base = strings.TrimSuffix(base, path.Ext(base))
	ext := ".jpg"
	if format == "png" {
		ext = ".png"
	}
	return fmt.Sprintf("thumbnails/%d/%s_%d%s", dimension, base, dimension, ext)
}
