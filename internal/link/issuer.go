// Package link builds the expiring URLs that grant time-boxed, unauthenticated
// access to original image assets.
package link

import (
	"fmt"
	"strings"

	"github.com/mlevan/imagetier/internal/model"
	"github.com/mlevan/imagetier/internal/tier"
	"github.com/mlevan/imagetier/internal/token"
)

type Issuer struct {
	codec   *token.Codec
	baseURL func() string
}

// NewIssuer builds an Issuer whose links are rooted at baseURL. The value is
// read on every mint so the caller may bind it after the listener is up.
func NewIssuer(codec *token.Codec, baseURL func() string) *Issuer {
	return &Issuer{codec: codec, baseURL: baseURL}
}

// Mint builds an expiring link for img unconditionally: a signed token for the
// image's original blob with the image's own TTL, wrapped into the serve
// endpoint URL. Callers cache the result on the image record whenever the TTL
// changes.
func (i *Issuer) Mint(img *model.Image) (string, error) {
	base := strings.TrimRight(i.baseURL(), "/")
	resource := fmt.Sprintf("%s/media/%s", base, img.StoragePath)
	tok, err := i.codec.Encode(resource, img.ExpirySeconds)
	if err != nil {
		return "", fmt.Errorf("encode capability token: %w", err)
	}
	return fmt.Sprintf("%s/serve-image/%s", base, tok), nil
}

// Issue returns an expiring link for img, or "" (and no error) when caps does
// not include expiring-link issuance. Only that one flag gates the operation.
func (i *Issuer) Issue(caps *tier.Capabilities, img *model.Image) (string, error) {
	if caps == nil || !caps.CanIssueExpiringLink {
		return "", nil
	}
	return i.Mint(img)
}
