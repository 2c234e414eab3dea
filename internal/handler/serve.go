package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mlevan/imagetier/internal/api"
	"github.com/mlevan/imagetier/internal/storage"
	"github.com/mlevan/imagetier/internal/thumbnail"
	"github.com/mlevan/imagetier/internal/token"
)

// ServeSignedImage handles GET /serve-image/{token} -- verifies the capability
// token and streams the referenced asset. Expired and invalid tokens get
// distinct 403 messages; a verified token pointing at a missing blob is a 404,
// never conflated with signature failures.
func (h *Handler) ServeSignedImage(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")

	resource, err := h.Codec.DecodeAndVerify(tok)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			api.Forbidden(w, "The image link has expired")
			return
		}
		api.Forbidden(w, "Invalid image link")
		return
	}

	relPath, ok := mediaPath(resource)
	if !ok {
		api.Forbidden(w, "Invalid image link")
		return
	}

	rc, err := h.Store.Retrieve(relPath)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPath) {
			// Locator would escape the media root; treat like a forged link.
			api.Forbidden(w, "Invalid image link")
			return
		}
		api.NotFound(w, "image file not found")
		return
	}
	defer rc.Close()

	streamBlob(w, rc, "")
}

// mediaPath extracts the media-root-relative blob path from a verified
// resource locator of the form <base>/media/<path>.
func mediaPath(resource string) (string, bool) {
	u, err := url.Parse(resource)
	if err != nil {
		return "", false
	}
	const prefix = "/media/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(u.Path, prefix)
	if rel == "" {
		return "", false
	}
	return rel, true
}

// ServeOriginal handles GET /images/{image_id}/original -- streams the
// original blob for requesters whose tier allows it. Owner-or-staff only.
func (h *Handler) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	user := api.GetUser(r.Context())
	imageID := chi.URLParam(r, "image_id")

	img, err := h.DB.GetImage(imageID)
	if err != nil {
		api.NotFound(w, "image not found")
		return
	}

	if img.UserID != user.ID && !user.IsStaff {
		api.Forbidden(w, "You do not have permission to perform this action.")
		return
	}

	caps := h.resolveCaps(w, user)
	if caps == nil {
		return
	}
	if !caps.CanViewOriginal {
		api.Forbidden(w, "You do not have permission to perform this action.")
		return
	}

	rc, err := h.Store.Retrieve(img.StoragePath)
	if err != nil {
		api.NotFound(w, "image file not found")
		return
	}
	defer rc.Close()

	streamBlob(w, rc, img.Filename)
}

// ServeThumbnail handles GET /images/{image_id}/thumbnail/{dimension} --
// streams the derived thumbnail, generating it on first request. The
// dimension must be among the requester's permitted sizes regardless of
// whether another user's request already generated that asset.
func (h *Handler) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	user := api.GetUser(r.Context())
	imageID := chi.URLParam(r, "image_id")

	dimension, err := strconv.Atoi(chi.URLParam(r, "dimension"))
	if err != nil || dimension <= 0 {
		api.BadRequest(w, "invalid thumbnail dimension")
		return
	}

	img, err := h.DB.GetImage(imageID)
	if err != nil {
		api.NotFound(w, "image not found")
		return
	}

	if img.UserID != user.ID && !user.IsStaff {
		api.Forbidden(w, "You do not have permission to perform this action.")
		return
	}

	caps := h.resolveCaps(w, user)
	if caps == nil {
		return
	}
	if !caps.HasSize(dimension) {
		api.Forbidden(w, "You do not have permission to perform this action.")
		return
	}

	path, err := h.Thumbs.GetOrCreate(img, dimension)
	if err != nil {
		if errors.Is(err, thumbnail.ErrGenerationFailed) {
			api.NotFound(w, "thumbnail could not be generated")
			return
		}
		api.ServerError(w, "failed to produce thumbnail")
		return
	}

	rc, err := h.Store.Retrieve(path)
	if err != nil {
		api.NotFound(w, "thumbnail file not found")
		return
	}
	defer rc.Close()

	streamBlob(w, rc, "")
}

// streamBlob writes the blob to the response with a sniffed Content-Type.
func streamBlob(w http.ResponseWriter, rc io.Reader, filename string) {
	// Read up to 512 bytes for content-type detection.
	buf := make([]byte, 512)
	n, err := io.ReadAtLeast(rc, buf, 1)
	if err != nil && err != io.ErrUnexpectedEOF {
		api.ServerError(w, "failed to read image")
		return
	}
	buf = buf[:n]

	w.Header().Set("Content-Type", http.DetectContentType(buf))
	if filename != "" {
		w.Header().Set("Content-Disposition", "inline; filename=\""+filename+"\"")
	}
	w.WriteHeader(http.StatusOK)

	// Write the already-read bytes first, then stream the rest.
	if _, err := w.Write(buf); err != nil {
		log.Printf("streamBlob: failed to write response: %v", err)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		log.Printf("streamBlob: failed to stream response: %v", err)
	}
}
