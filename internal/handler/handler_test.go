package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mlevan/imagetier/internal/api"
	"github.com/mlevan/imagetier/internal/config"
	"github.com/mlevan/imagetier/internal/database"
	"github.com/mlevan/imagetier/internal/link"
	"github.com/mlevan/imagetier/internal/model"
	"github.com/mlevan/imagetier/internal/storage"
	"github.com/mlevan/imagetier/internal/thumbnail"
	"github.com/mlevan/imagetier/internal/tier"
	"github.com/mlevan/imagetier/internal/token"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-signing-secret"
	testBaseURL = "http://localhost:8080"

	basicToken      = "basic-token"
	premiumToken    = "premium-token"
	enterpriseToken = "enterprise-token"
	staffToken      = "staff-token"
	untieredToken   = "untiered-token"
)

// newTestHandler builds a Handler over a fresh SQLite database and temp-dir
// storage, with the 200/400 catalog and one user per tier seeded.
func newTestHandler(t *testing.T) *Handler {
	return newTestHandlerWithClock(t, time.Now)
}

func newTestHandlerWithClock(t *testing.T, now func() time.Time) *Handler {
	t.Helper()

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewFileSystem(t.TempDir())
	cfg := &config.Config{
		BaseURL:        testBaseURL,
		SigningSecret:  testSecret,
		MaxUploadBytes: 10 << 20,
	}

	require.NoError(t, db.CreateThumbnailSize(200))
	require.NoError(t, db.CreateThumbnailSize(400))

	users := []*model.User{
		{ID: "user-basic", Name: "basic", Token: basicToken, Tier: "Basic"},
		{ID: "user-premium", Name: "premium", Token: premiumToken, Tier: "Premium"},
		{ID: "user-enterprise", Name: "enterprise", Token: enterpriseToken, Tier: "Enterprise"},
		{ID: "user-staff", Name: "staff", Token: staffToken, IsStaff: true},
		{ID: "user-untiered", Name: "untiered", Token: untieredToken},
	}
	for _, u := range users {
		require.NoError(t, db.CreateUser(u))
	}

	codec := token.NewCodecWithClock(testSecret, now)
	return &Handler{
		DB:     db,
		Store:  store,
		Config: cfg,
		Codec:  codec,
		Tiers:  tier.NewResolver(db),
		Thumbs: thumbnail.NewGenerator(db, store),
		Links:  link.NewIssuer(codec, func() string { return cfg.BaseURL }),
	}
}

// setupRouter wires the handler into the same routes the real router uses.
func setupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/serve-image/{token}", h.ServeSignedImage)
	r.Group(func(r chi.Router) {
		r.Use(api.AuthMiddleware(h.DB))
		r.Post("/upload", h.UploadImage)
		r.Get("/list", h.ListImages)
		r.Get("/expiring-link/{image_id}", h.GenerateExpiringLink)
		r.Get("/images/{image_id}/original", h.ServeOriginal)
		r.Get("/images/{image_id}/thumbnail/{dimension}", h.ServeThumbnail)
		r.Group(func(r chi.Router) {
			r.Use(api.StaffOnly)
			r.Post("/account-tiers", h.CreateTier)
			r.Get("/account-tiers", h.ListTiers)
			r.Get("/account-tiers/{tier_name}", h.GetTier)
			r.Put("/account-tiers/{tier_name}", h.UpdateTier)
			r.Delete("/account-tiers/{tier_name}", h.DeleteTier)
			r.Post("/thumbnail-sizes", h.CreateThumbnailSize)
			r.Get("/thumbnail-sizes", h.ListThumbnailSizes)
			r.Delete("/thumbnail-sizes/{dimension}", h.DeleteThumbnailSize)
		})
	})
	return r
}

// testJPEG generates a small valid JPEG image.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// testPNG generates a small valid PNG image.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadRequest builds a multipart POST /upload request.
func uploadRequest(t *testing.T, authToken, filename, expiryTime string, content []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = io.Copy(part, bytes.NewReader(content))
		require.NoError(t, err)
	}
	if expiryTime != "" {
		require.NoError(t, writer.WriteField("expiry_time", expiryTime))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+authToken)
	return req
}

// authedGet builds an authenticated GET request.
func authedGet(authToken, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+authToken)
	return req
}

// seedOwnedImage inserts an image record plus its blob directly.
func seedOwnedImage(t *testing.T, h *Handler, id, userID string, blob []byte) *model.Image {
	t.Helper()
	img := &model.Image{
		ID:            id,
		UserID:        userID,
		Filename:      "photo.jpg",
		StoragePath:   "images/" + id + ".jpg",
		ExpirySeconds: 300,
		UploadedAt:    time.Now().UTC(),
	}
	require.NoError(t, h.DB.CreateImage(img))
	if blob != nil {
		_, err := h.Store.Store(img.StoragePath, bytes.NewReader(blob))
		require.NoError(t, err)
	}
	return img
}
