package model

import "time"

// Expiring-link TTL bounds, in seconds. Values outside this closed range are
// rejected at upload time.
const (
	MinExpirySeconds = 300
	MaxExpirySeconds = 30000

	// DefaultExpirySeconds is used when an upload omits expiry_time.
	DefaultExpirySeconds = 300
)

// User is the minimal account record kept at the service boundary. Accounts
// are provisioned out of band (see cmd/seed); the service only needs the
// bearer credential, the staff flag and the assigned tier name.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Token   string `json:"-"`
	IsStaff bool   `json:"is_staff"`
	Tier    string `json:"tier,omitempty"`
}

// Image is an uploaded source image owned by one user.
type Image struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user"`
	Filename      string    `json:"filename"`
	StoragePath   string    `json:"-"`
	ExpirySeconds int       `json:"expiry_time"`
	ExpiringLink  string    `json:"-"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Thumbnail is the derived asset for one (image, dimension) pair. StoragePath
// is empty until the blob has been fully generated and published, so a failed
// generation is retried on the next request instead of serving a phantom file.
type Thumbnail struct {
	ImageID     string `json:"image_id"`
	Dimension   int    `json:"dimension"`
	StoragePath string `json:"-"`
}

// AccountTier is an admin-managed capability bundle. The canonical Basic,
// Premium and Enterprise tiers have fixed semantics in the tier resolver;
// rows here drive any additional tiers.
type AccountTier struct {
	Name              string `json:"name"`
	ThumbnailSizes    []int  `json:"thumbnail_sizes"`
	AllowOriginalLink bool   `json:"allow_original_link"`
	AllowExpiringLink bool   `json:"allow_expiring_link"`
}
