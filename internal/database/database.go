package database

import "github.com/mlevan/imagetier/internal/model"

// Database defines the persistence interface for all domain objects.
type Database interface {
	// Users
	CreateUser(u *model.User) error
	GetUser(userID string) (*model.User, error)
	GetUserByToken(token string) (*model.User, error)
	DeleteUser(userID string) error

	// Images
	CreateImage(img *model.Image) error
	GetImage(imageID string) (*model.Image, error)
	ListImagesByUser(userID string) ([]*model.Image, error)
	SetExpiringLink(imageID, link string) error
	DeleteImage(imageID string) error

	// Derived thumbnails. ReserveThumbnail inserts the (image, dimension)
	// key row if absent and is a no-op otherwise, so concurrent callers
	// never duplicate the key.
	ReserveThumbnail(imageID string, dimension int) error
	GetThumbnail(imageID string, dimension int) (*model.Thumbnail, error)
	SetThumbnailPath(imageID string, dimension int, path string) error
	ListThumbnails(imageID string) ([]*model.Thumbnail, error)

	// Thumbnail size catalog
	CreateThumbnailSize(dimension int) error
	ListThumbnailSizes() ([]int, error)
	DeleteThumbnailSize(dimension int) error

	// Account tiers
	CreateTier(tier *model.AccountTier) error
	GetTier(name string) (*model.AccountTier, error)
	ListTiers() ([]*model.AccountTier, error)
	UpdateTier(tier *model.AccountTier) error
	DeleteTier(name string) error

	Close() error
}
