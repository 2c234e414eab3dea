// Package tier maps an account tier (or staff privilege) to the concrete
// capabilities it grants: visible thumbnail sizes, original-image access and
// expiring-link issuance.
package tier

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mlevan/imagetier/internal/model"
)

var (
	// ErrTierNotConfigured is returned when the requester has no usable
	// tier assignment.
	ErrTierNotConfigured = errors.New("account tier not assigned or not configured")

	// ErrNoMatchingSizes is returned when none of the permitted thumbnail
	// sizes exist in the live size catalog.
	ErrNoMatchingSizes = errors.New("no permitted thumbnail sizes exist in the catalog")
)

// Capabilities is the resolved permission set for one requester.
type Capabilities struct {
	Sizes                []int
	CanViewOriginal      bool
	CanIssueExpiringLink bool
}

// HasSize reports whether dimension is among the permitted sizes.
func (c *Capabilities) HasSize(dimension int) bool {
	return slices.Contains(c.Sizes, dimension)
}

// canonicalTiers fixes the semantics of the three well-known tier names.
// Other tiers are looked up in the admin-managed catalog.
var canonicalTiers = map[string]Capabilities{
	"Basic":      {Sizes: []int{200}},
	"Premium":    {Sizes: []int{200, 400}, CanViewOriginal: true},
	"Enterprise": {Sizes: []int{200, 400}, CanViewOriginal: true, CanIssueExpiringLink: true},
}

// Catalog is the read surface the resolver needs from persistence.
type Catalog interface {
	ListThumbnailSizes() ([]int, error)
	GetTier(name string) (*model.AccountTier, error)
}

type Resolver struct {
	catalog Catalog
}

func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve returns the capabilities of u. Staff bypass the tier table and
// receive every size currently in the catalog plus both permissions. For
// everyone else the permitted sizes are intersected with the live catalog, so
// an admin deleting a size takes effect immediately.
func (r *Resolver) Resolve(u *model.User) (*Capabilities, error) {
	live, err := r.catalog.ListThumbnailSizes()
	if err != nil {
		return nil, fmt.Errorf("list thumbnail sizes: %w", err)
	}

	if u.IsStaff {
		if len(live) == 0 {
			return nil, ErrNoMatchingSizes
		}
		return &Capabilities{
			Sizes:                live,
			CanViewOriginal:      true,
			CanIssueExpiringLink: true,
		}, nil
	}

	if u.Tier == "" {
		return nil, ErrTierNotConfigured
	}

	caps, ok := canonicalTiers[u.Tier]
	if !ok {
		t, err := r.catalog.GetTier(u.Tier)
		if err != nil {
			return nil, ErrTierNotConfigured
		}
		caps = Capabilities{
			Sizes:                t.ThumbnailSizes,
			CanViewOriginal:      t.AllowOriginalLink,
			CanIssueExpiringLink: t.AllowExpiringLink,
		}
	}

	if len(caps.Sizes) == 0 && len(live) > 0 {
		return nil, ErrTierNotConfigured
	}

	var sizes []int
	for _, d := range caps.Sizes {
		if slices.Contains(live, d) {
			sizes = append(sizes, d)
		}
	}
	if len(sizes) == 0 {
		return nil, ErrNoMatchingSizes
	}

	return &Capabilities{
		Sizes:                sizes,
		CanViewOriginal:      caps.CanViewOriginal,
		CanIssueExpiringLink: caps.CanIssueExpiringLink,
	}, nil
}
