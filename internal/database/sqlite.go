package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mlevan/imagetier/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	if !strings.Contains(dsn, "foreign_keys") {
		dsn += "&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateUser(u *model.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, name, token, is_staff, tier)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Token, boolToInt(u.IsStaff), u.Tier,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetUser(userID string) (*model.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, token, is_staff, tier FROM users WHERE id = ?`, userID)
	return scanUser(row)
}

func (s *SQLiteDB) GetUserByToken(token string) (*model.User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, token, is_staff, tier FROM users WHERE token = ?`, token)
	return scanUser(row)
}

func (s *SQLiteDB) DeleteUser(userID string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return checkRowsAffected(res, "user not found")
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var isStaff int
	err := row.Scan(&u.ID, &u.Name, &u.Token, &isStaff, &u.Tier)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.IsStaff = isStaff != 0
	return &u, nil
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateImage(img *model.Image) error {
	_, err := s.db.Exec(`
		INSERT INTO images (id, user_id, filename, storage_path, expiry_seconds, expiring_link, uploaded)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		img.ID, img.UserID, img.Filename, img.StoragePath, img.ExpirySeconds,
		img.ExpiringLink, img.UploadedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetImage(imageID string) (*model.Image, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, filename, storage_path, expiry_seconds, expiring_link, uploaded
		FROM images WHERE id = ?`, imageID)

	img, err := scanImage(row.Scan)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *SQLiteDB) ListImagesByUser(userID string) ([]*model.Image, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, filename, storage_path, expiry_seconds, expiring_link, uploaded
		FROM images WHERE user_id = ?
		ORDER BY uploaded ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*model.Image
	for rows.Next() {
		img, err := scanImage(rows.Scan)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteDB) SetExpiringLink(imageID, link string) error {
	res, err := s.db.Exec(`UPDATE images SET expiring_link = ? WHERE id = ?`, link, imageID)
	if err != nil {
		return fmt.Errorf("set expiring link: %w", err)
	}
	return checkRowsAffected(res, "image not found")
}

func (s *SQLiteDB) DeleteImage(imageID string) error {
	res, err := s.db.Exec(`DELETE FROM images WHERE id = ?`, imageID)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return checkRowsAffected(res, "image not found")
}

func scanImage(scan func(dest ...any) error) (*model.Image, error) {
	var img model.Image
	var uploaded string
	err := scan(&img.ID, &img.UserID, &img.Filename, &img.StoragePath,
		&img.ExpirySeconds, &img.ExpiringLink, &uploaded)
	if err != nil {
		return nil, fmt.Errorf("scan image: %w", err)
	}
	img.UploadedAt, err = time.Parse(time.RFC3339, uploaded)
	if err != nil {
		return nil, fmt.Errorf("parse uploaded time: %w", err)
	}
	return &img, nil
}

// ---------------------------------------------------------------------------
// Thumbnails
// ---------------------------------------------------------------------------

func (s *SQLiteDB) ReserveThumbnail(imageID string, dimension int) error {
	// The (image_id, dimension) primary key makes this race-free: losers of
	// a concurrent insert hit the conflict clause and move on.
	_, err := s.db.Exec(`
		INSERT INTO thumbnails (image_id, dimension, storage_path)
		VALUES (?, ?, '')
		ON CONFLICT (image_id, dimension) DO NOTHING`,
		imageID, dimension,
	)
	if err != nil {
		return fmt.Errorf("reserve thumbnail: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetThumbnail(imageID string, dimension int) (*model.Thumbnail, error) {
	row := s.db.QueryRow(`
		SELECT image_id, dimension, storage_path
		FROM thumbnails WHERE image_id = ? AND dimension = ?`,
		imageID, dimension,
	)
	var th model.Thumbnail
	if err := row.Scan(&th.ImageID, &th.Dimension, &th.StoragePath); err != nil {
		return nil, fmt.Errorf("scan thumbnail: %w", err)
	}
	return &th, nil
}

func (s *SQLiteDB) SetThumbnailPath(imageID string, dimension int, path string) error {
	res, err := s.db.Exec(`
		UPDATE thumbnails SET storage_path = ?
		WHERE image_id = ? AND dimension = ?`,
		path, imageID, dimension,
	)
	if err != nil {
		return fmt.Errorf("set thumbnail path: %w", err)
	}
	return checkRowsAffected(res, "thumbnail not found")
}

func (s *SQLiteDB) ListThumbnails(imageID string) ([]*model.Thumbnail, error) {
	rows, err := s.db.Query(`
		SELECT image_id, dimension, storage_path
		FROM thumbnails WHERE image_id = ?
		ORDER BY dimension ASC`, imageID)
	if err != nil {
		return nil, fmt.Errorf("list thumbnails: %w", err)
	}
	defer rows.Close()

	var ths []*model.Thumbnail
	for rows.Next() {
		var th model.Thumbnail
		if err := rows.Scan(&th.ImageID, &th.Dimension, &th.StoragePath); err != nil {
			return nil, fmt.Errorf("scan thumbnail: %w", err)
		}
		ths = append(ths, &th)
	}
	return ths, rows.Err()
}

// ---------------------------------------------------------------------------
// Thumbnail size catalog
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateThumbnailSize(dimension int) error {
	_, err := s.db.Exec(`INSERT INTO thumbnail_sizes (dimension) VALUES (?)`, dimension)
	if err != nil {
		return fmt.Errorf("insert thumbnail size: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListThumbnailSizes() ([]int, error) {
	rows, err := s.db.Query(`SELECT dimension FROM thumbnail_sizes ORDER BY dimension ASC`)
	if err != nil {
		return nil, fmt.Errorf("list thumbnail sizes: %w", err)
	}
	defer rows.Close()

	var sizes []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan thumbnail size: %w", err)
		}
		sizes = append(sizes, d)
	}
	return sizes, rows.Err()
}

func (s *SQLiteDB) DeleteThumbnailSize(dimension int) error {
	res, err := s.db.Exec(`DELETE FROM thumbnail_sizes WHERE dimension = ?`, dimension)
	if err != nil {
		return fmt.Errorf("delete thumbnail size: %w", err)
	}
	return checkRowsAffected(res, "thumbnail size not found")
}

// ---------------------------------------------------------------------------
// Account tiers
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateTier(tier *model.AccountTier) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO tiers (name, allow_original_link, allow_expiring_link)
		VALUES (?, ?, ?)`,
		tier.Name, boolToInt(tier.AllowOriginalLink), boolToInt(tier.AllowExpiringLink),
	)
	if err != nil {
		return fmt.Errorf("insert tier: %w", err)
	}
	if err := replaceTierSizes(tx, tier.Name, tier.ThumbnailSizes); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDB) GetTier(name string) (*model.AccountTier, error) {
	row := s.db.QueryRow(`
		SELECT name, allow_original_link, allow_expiring_link
		FROM tiers WHERE name = ?`, name)

	var tier model.AccountTier
	var original, expiring int
	if err := row.Scan(&tier.Name, &original, &expiring); err != nil {
		return nil, fmt.Errorf("scan tier: %w", err)
	}
	tier.AllowOriginalLink = original != 0
	tier.AllowExpiringLink = expiring != 0

	sizes, err := s.tierSizes(name)
	if err != nil {
		return nil, err
	}
	tier.ThumbnailSizes = sizes
	return &tier, nil
}

func (s *SQLiteDB) ListTiers() ([]*model.AccountTier, error) {
	rows, err := s.db.Query(`SELECT name FROM tiers ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tier name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tiers := make([]*model.AccountTier, 0, len(names))
	for _, name := range names {
		tier, err := s.GetTier(name)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func (s *SQLiteDB) UpdateTier(tier *model.AccountTier) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE tiers SET allow_original_link = ?, allow_expiring_link = ?
		WHERE name = ?`,
		boolToInt(tier.AllowOriginalLink), boolToInt(tier.AllowExpiringLink), tier.Name,
	)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	if err := checkRowsAffected(res, "tier not found"); err != nil {
		return err
	}
	if err := replaceTierSizes(tx, tier.Name, tier.ThumbnailSizes); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteDB) DeleteTier(name string) error {
	res, err := s.db.Exec(`DELETE FROM tiers WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete tier: %w", err)
	}
	return checkRowsAffected(res, "tier not found")
}

func (s *SQLiteDB) tierSizes(name string) ([]int, error) {
	rows, err := s.db.Query(`
		SELECT dimension FROM tier_sizes WHERE tier_name = ? ORDER BY dimension ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("list tier sizes: %w", err)
	}
	defer rows.Close()

	var sizes []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan tier size: %w", err)
		}
		sizes = append(sizes, d)
	}
	return sizes, rows.Err()
}

func replaceTierSizes(tx *sql.Tx, name string, sizes []int) error {
	if _, err := tx.Exec(`DELETE FROM tier_sizes WHERE tier_name = ?`, name); err != nil {
		return fmt.Errorf("clear tier sizes: %w", err)
	}
	for _, d := range sizes {
		if _, err := tx.Exec(`
			INSERT INTO tier_sizes (tier_name, dimension) VALUES (?, ?)
			ON CONFLICT (tier_name, dimension) DO NOTHING`, name, d); err != nil {
			return fmt.Errorf("insert tier size: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, notFoundMsg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s", notFoundMsg)
	}
	return nil
}
