package database

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mlevan/imagetier/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *SQLiteDB, id, tier string, staff bool) *model.User {
	t.Helper()
	u := &model.User{ID: id, Name: id, Token: "token-" + id, IsStaff: staff, Tier: tier}
	require.NoError(t, db.CreateUser(u))
	return u
}

func seedImage(t *testing.T, db *SQLiteDB, id, userID string) *model.Image {
	t.Helper()
	img := &model.Image{
		ID:            id,
		UserID:        userID,
		Filename:      "photo.jpg",
		StoragePath:   "images/" + id + ".jpg",
		ExpirySeconds: 300,
		UploadedAt:    time.Now().UTC(),
	}
	require.NoError(t, db.CreateImage(img))
	return img
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestUserCRUD(t *testing.T) {
	db := newTestDB(t)

	seedUser(t, db, "u1", "Premium", false)

	got, err := db.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "Premium", got.Tier)
	assert.False(t, got.IsStaff)

	byToken, err := db.GetUserByToken("token-u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", byToken.ID)

	_, err = db.GetUserByToken("no-such-token")
	assert.Error(t, err)
}

func TestCreateUser_DuplicateToken(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "", false)

	err := db.CreateUser(&model.User{ID: "u2", Token: "token-u1"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func TestImageCRUD(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "Basic", false)

	img := seedImage(t, db, "img-1", "u1")

	got, err := db.GetImage("img-1")
	require.NoError(t, err)
	assert.Equal(t, img.StoragePath, got.StoragePath)
	assert.Equal(t, 300, got.ExpirySeconds)
	assert.Empty(t, got.ExpiringLink)

	require.NoError(t, db.SetExpiringLink("img-1", "http://localhost/serve-image/tok"))
	got, err = db.GetImage("img-1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/serve-image/tok", got.ExpiringLink)

	list, err := db.ListImagesByUser("u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, db.DeleteImage("img-1"))
	_, err = db.GetImage("img-1")
	assert.Error(t, err)
}

func TestDeleteUser_CascadesImagesAndThumbnails(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "Basic", false)
	seedImage(t, db, "img-1", "u1")

	require.NoError(t, db.ReserveThumbnail("img-1", 200))

	require.NoError(t, db.DeleteUser("u1"))

	_, err := db.GetImage("img-1")
	assert.Error(t, err)
	_, err = db.GetThumbnail("img-1", 200)
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Thumbnails
// ---------------------------------------------------------------------------

func TestReserveThumbnail_Idempotent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "Basic", false)
	seedImage(t, db, "img-1", "u1")

	require.NoError(t, db.ReserveThumbnail("img-1", 200))
	require.NoError(t, db.ReserveThumbnail("img-1", 200))

	ths, err := db.ListThumbnails("img-1")
	require.NoError(t, err)
	require.Len(t, ths, 1)
	assert.Equal(t, 200, ths[0].Dimension)
	assert.Empty(t, ths[0].StoragePath)
}

func TestReserveThumbnail_Concurrent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "Basic", false)
	seedImage(t, db, "img-1", "u1")

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = db.ReserveThumbnail("img-1", 400)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	ths, err := db.ListThumbnails("img-1")
	require.NoError(t, err)
	assert.Len(t, ths, 1)
}

func TestSetThumbnailPath(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "Basic", false)
	seedImage(t, db, "img-1", "u1")

	require.NoError(t, db.ReserveThumbnail("img-1", 200))
	require.NoError(t, db.SetThumbnailPath("img-1", 200, "thumbnails/200/img-1_200.jpg"))

	th, err := db.GetThumbnail("img-1", 200)
	require.NoError(t, err)
	assert.Equal(t, "thumbnails/200/img-1_200.jpg", th.StoragePath)
}

// ---------------------------------------------------------------------------
// Thumbnail size catalog
// ---------------------------------------------------------------------------

func TestThumbnailSizeCatalog(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.CreateThumbnailSize(200))
	require.NoError(t, db.CreateThumbnailSize(400))

	// Dimensions are a set: duplicates are rejected.
	assert.Error(t, db.CreateThumbnailSize(200))

	sizes, err := db.ListThumbnailSizes()
	require.NoError(t, err)
	assert.Equal(t, []int{200, 400}, sizes)

	require.NoError(t, db.DeleteThumbnailSize(400))
	sizes, err = db.ListThumbnailSizes()
	require.NoError(t, err)
	assert.Equal(t, []int{200}, sizes)
}

func TestCreateThumbnailSize_RejectsNonPositive(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.CreateThumbnailSize(0))
	assert.Error(t, db.CreateThumbnailSize(-100))
}

// ---------------------------------------------------------------------------
// Account tiers
// ---------------------------------------------------------------------------

func TestTierCRUD(t *testing.T) {
	db := newTestDB(t)

	tier := &model.AccountTier{
		Name:              "Partner",
		ThumbnailSizes:    []int{200, 400},
		AllowOriginalLink: true,
	}
	require.NoError(t, db.CreateTier(tier))

	got, err := db.GetTier("Partner")
	require.NoError(t, err)
	assert.Equal(t, []int{200, 400}, got.ThumbnailSizes)
	assert.True(t, got.AllowOriginalLink)
	assert.False(t, got.AllowExpiringLink)

	got.ThumbnailSizes = []int{400}
	got.AllowExpiringLink = true
	require.NoError(t, db.UpdateTier(got))

	got, err = db.GetTier("Partner")
	require.NoError(t, err)
	assert.Equal(t, []int{400}, got.ThumbnailSizes)
	assert.True(t, got.AllowExpiringLink)

	tiers, err := db.ListTiers()
	require.NoError(t, err)
	require.Len(t, tiers, 1)

	require.NoError(t, db.DeleteTier("Partner"))
	_, err = db.GetTier("Partner")
	assert.Error(t, err)
}
