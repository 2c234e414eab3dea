package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// allowedExtensions lists the upload extensions the service accepts.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AllowedExtension reports whether the filename carries a supported image
// extension. The check is case-insensitive.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// DetectFormat inspects the raw bytes and returns the image format:
// "jpeg", "png", or "" if unknown.
func DetectFormat(data []byte) string {
	// JPEG: starts with FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg"
	}
	// PNG: starts with 89 50 4E 47 0D 0A 1A 0A
	if len(data) >= 8 && data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
		data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A {
		return "png"
	}
	return ""
}

// Thumbnail decodes the source image, resizes it so that neither dimension
// exceeds dimension (preserving aspect ratio, never enlarging), and re-encodes
// it in the source format. It returns the encoded bytes and the format name.
func Thumbnail(src io.Reader, dimension int) ([]byte, string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("reading source: %w", err)
	}

	format := DetectFormat(data)
	if format == "" {
		return nil, "", fmt.Errorf("unsupported or unrecognized image format")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	img = fitWithin(img, dimension)

	out, err := encodeImage(img, format)
	if err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}

	return out, format, nil
}

// fitWithin resizes to fit within dimension x dimension, preserving aspect
// ratio. Only shrinks, never enlarges.
func fitWithin(img image.Image, dimension int) image.Image {
	if img.Bounds().Dx() <= dimension && img.Bounds().Dy() <= dimension {
		// Already fits; do not enlarge.
		return img
	}
	return imaging.Fit(img, dimension, dimension, imaging.Lanczos)
}

// encodeImage encodes an image to the specified format and returns the bytes.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return buf.Bytes(), nil
}
